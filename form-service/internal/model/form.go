package model

import (
	"io"
)

const (
	SourceWeb          = "web"
	DefaultContentType = "application/octet-stream"
)

type StatusKind string

const (
	StatusInfo    StatusKind = "info"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the text shown to the user next to the form. An empty Message
// clears the display.
type Status struct {
	Message string     `json:"message"`
	Kind    StatusKind `json:"kind"`
}

// MediaFile is the photo or video attached to a submission.
type MediaFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Type returns the declared content type or the generic binary default.
func (f *MediaFile) Type() string {
	if f.ContentType == "" {
		return DefaultContentType
	}
	return f.ContentType
}

// ReportFormInput holds the raw form values. Text fields are trimmed during
// validation; Lat and Lng stay as submitted until parsed.
type ReportFormInput struct {
	City         string     `form:"city" binding:"required"`
	Area         string     `form:"area" binding:"required"`
	Description  string     `form:"description" binding:"required"`
	WasteType    string     `form:"wasteType" binding:"required"`
	Urgency      string     `form:"urgency" binding:"required"`
	Lat          string     `form:"lat"`
	Lng          string     `form:"lng"`
	ContactEmail string     `form:"contactEmail"`
	ContactPhone string     `form:"contactPhone"`
	FormID       string     `form:"formId"`
	File         *MediaFile `form:"-"`
}

// UploadCredential is returned by POST /upload-url and used exactly once.
type UploadCredential struct {
	UploadURL string `json:"uploadUrl"`
	FileKey   string `json:"fileKey"`
}

type UploadCredentialRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// ReportPayload is the body of POST /reports.
type ReportPayload struct {
	City         string   `json:"city"`
	Area         string   `json:"area"`
	Description  string   `json:"description"`
	WasteType    string   `json:"wasteType"`
	Urgency      string   `json:"urgency"`
	PhotoKey     string   `json:"photoKey"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	ContactEmail string   `json:"contactEmail,omitempty"`
	ContactPhone string   `json:"contactPhone,omitempty"`
	Source       string   `json:"source"`
}

type CreateReportResponse struct {
	ReportID string `json:"reportId"`
	Message  string `json:"message"`
}

// SubmissionResult is what the controller hands back after a successful run.
type SubmissionResult struct {
	ReportID string `json:"reportId"`
	FileKey  string `json:"fileKey"`
}
