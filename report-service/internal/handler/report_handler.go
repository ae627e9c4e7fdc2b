package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vinittippanawar/click-clean-waste-reporting/internal/logging"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/failure"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/model"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/repository"
)

const mimeGeoJSON = "application/geo+json"

type ReportService interface {
	CreateReport(ctx context.Context, req *model.CreateReportRequest) (*model.Report, error)
	GetReport(ctx context.Context, id string) (*model.Report, error)
}

type UploadService interface {
	IssueUploadCredential(ctx context.Context, req *model.UploadURLRequest) (*model.UploadURLResponse, error)
}

// ReportHandler logs through the request logger set by RequestLogger; logger
// is the base it derives from.
type ReportHandler struct {
	reports ReportService
	uploads UploadService
	logger  *slog.Logger
}

func NewReportHandler(reports ReportService, uploads UploadService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, uploads: uploads, logger: logger.With("component", "report_handler")}
}

// Handles POST /upload-url - returns a presigned PUT URL and the object key.
func (h *ReportHandler) UploadURL(c *gin.Context) {
	var req model.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	resp, err := h.uploads.IssueUploadCredential(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Handles POST /reports - stores a Pending report and queues its notification.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	var req model.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	report, err := h.reports.CreateReport(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}

	logging.FromContext(c.Request.Context()).Info("report created", "report_id", report.ReportID, "city", report.City, "urgency", report.Urgency)
	c.JSON(http.StatusOK, model.CreateReportResponse{
		ReportID: report.ReportID,
		Message:  "Report submitted successfully",
	})
}

// Handles GET /reports/:id - JSON, or a GeoJSON Feature when asked for
// application/geo+json.
func (h *ReportHandler) GetReport(c *gin.Context) {
	report, err := h.reports.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		h.fail(c, err)
		return
	}

	if c.NegotiateFormat(gin.MIMEJSON, mimeGeoJSON) == mimeGeoJSON {
		c.Header("Content-Type", mimeGeoJSON)
		c.JSON(http.StatusOK, report.Feature())
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// fail writes the public part of err and logs the rest.
func (h *ReportHandler) fail(c *gin.Context, err error) {
	var rf *failure.RequestFailure
	if !errors.As(err, &rf) {
		rf = failure.Wrap(err, c.FullPath())
	}
	log := logging.FromContext(c.Request.Context())
	if rf.Code >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.Request.URL.Path, "error", rf.Cause())
	} else {
		log.Warn("request rejected", "path", c.Request.URL.Path, "reason", rf.Msg)
	}
	c.JSON(rf.Code, gin.H{"error": rf.Msg})
}
