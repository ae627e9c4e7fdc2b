package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/client"
	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/model"
)

const (
	msgRequestingUpload = "Requesting upload URL..."
	msgUploading        = "Uploading file to secure storage..."
	msgSaving           = "Saving report..."
)

// ReportAPI is the backend contract used by a submission.
type ReportAPI interface {
	GetUploadCredential(ctx context.Context, file *model.MediaFile) (*model.UploadCredential, error)
	UploadFile(ctx context.Context, cred *model.UploadCredential, file *model.MediaFile) error
	CreateReport(ctx context.Context, payload *model.ReportPayload) (*model.CreateReportResponse, error)
}

// StatusReporter receives progress for one submission. SetLoading(true)
// disables the submit control, SetLoading(false) enables it again.
type StatusReporter interface {
	SetStatus(status model.Status)
	SetLoading(loading bool)
}

// FormController runs report submissions. Only one submission per form ID
// runs at a time; different forms do not block each other.
type FormController struct {
	api    ReportAPI
	logger *slog.Logger

	mu   sync.Mutex
	busy map[string]struct{}
}

func NewFormController(api ReportAPI, logger *slog.Logger) *FormController {
	return &FormController{
		api:    api,
		logger: logger.With("component", "form"),
		busy:   make(map[string]struct{}),
	}
}

// Busy reports whether a submission for formID is in flight.
func (c *FormController) Busy(formID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.busy[formID]
	return ok
}

func (c *FormController) acquire(formID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.busy[formID]; ok {
		return false
	}
	c.busy[formID] = struct{}{}
	return true
}

func (c *FormController) release(formID string) {
	c.mu.Lock()
	delete(c.busy, formID)
	c.mu.Unlock()
}

// Submit validates the input and runs upload-url, upload and create-report
// in order. Any failure stops the remaining steps, is logged and is reported
// through ui as an error status.
func (c *FormController) Submit(ctx context.Context, in *model.ReportFormInput, ui StatusReporter) (*model.SubmissionResult, error) {
	if !c.acquire(in.FormID) {
		err := &BusyError{FormID: in.FormID}
		c.logger.Warn("submission rejected", "form_id", in.FormID, "error", err)
		ui.SetStatus(model.Status{Message: err.Error(), Kind: model.StatusError})
		return nil, err
	}
	defer c.release(in.FormID)

	ui.SetStatus(model.Status{})
	ui.SetLoading(true)
	defer ui.SetLoading(false)

	result, err := c.run(ctx, in, ui)
	if err != nil {
		attrs := []any{"form_id", in.FormID, "error", err}
		if apiErr, ok := client.AsAPIError(err); ok {
			attrs = append(attrs, "op", apiErr.Op, "status", apiErr.StatusCode)
		}
		c.logger.Error("submission failed", attrs...)
		msg := err.Error()
		if msg == "" {
			msg = msgFallback
		}
		ui.SetStatus(model.Status{Message: msg, Kind: model.StatusError})
		return nil, err
	}

	reportID := result.ReportID
	if reportID == "" {
		reportID = "N/A"
	}
	ui.SetStatus(model.Status{
		Message: fmt.Sprintf("Report submitted successfully! Your report ID is %s.", reportID),
		Kind:    model.StatusSuccess,
	})
	c.logger.Info("report submitted", "form_id", in.FormID, "report_id", result.ReportID, "file_key", result.FileKey)
	return result, nil
}

func (c *FormController) run(ctx context.Context, in *model.ReportFormInput, ui StatusReporter) (*model.SubmissionResult, error) {
	payload, err := validateInput(in)
	if err != nil {
		return nil, err
	}

	ui.SetStatus(model.Status{Message: msgRequestingUpload, Kind: model.StatusInfo})
	cred, err := c.api.GetUploadCredential(ctx, in.File)
	if err != nil {
		return nil, err
	}

	ui.SetStatus(model.Status{Message: msgUploading, Kind: model.StatusInfo})
	if err := c.api.UploadFile(ctx, cred, in.File); err != nil {
		return nil, err
	}

	ui.SetStatus(model.Status{Message: msgSaving, Kind: model.StatusInfo})
	payload.PhotoKey = cred.FileKey
	resp, err := c.api.CreateReport(ctx, payload)
	if err != nil {
		return nil, err
	}

	return &model.SubmissionResult{ReportID: resp.ReportID, FileKey: cred.FileKey}, nil
}
