package handler

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/controller"
	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/model"
	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/quote"
)

//go:embed templates/*.html
var templateFS embed.FS

const mimeEventStream = "text/event-stream"

// LoadTemplates parses the embedded page templates.
func LoadTemplates() *template.Template {
	funcs := template.FuncMap{
		"list": func(items ...string) []string { return items },
	}
	return template.Must(template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

type FormHandler struct {
	controller *controller.FormController
	quotes     *quote.Rotator
	logger     *slog.Logger
}

func NewFormHandler(ctrl *controller.FormController, quotes *quote.Rotator, logger *slog.Logger) *FormHandler {
	return &FormHandler{controller: ctrl, quotes: quotes, logger: logger}
}

type submitResponse struct {
	Status   string           `json:"status"`
	Kind     model.StatusKind `json:"kind"`
	ReportID string           `json:"reportId,omitempty"`
	Progress []model.Status   `json:"progress,omitempty"`
}

type pageData struct {
	FormID string
	Busy   bool
	Quote  string
	Year   int
	Status model.Status
	Values *model.ReportFormInput
}

// Handles GET /?formId= - renders an empty report form. A reload keeps its
// formId, and the submit button stays disabled while that form is busy.
func (h *FormHandler) ShowForm(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", h.page(model.Status{}, &model.ReportFormInput{FormID: c.Query("formId")}))
}

// Handles POST /submit - runs one report submission and answers as an event
// stream, an HTML page or JSON depending on Accept.
func (h *FormHandler) Submit(c *gin.Context) {
	in, closeFile, err := readForm(c)
	if err != nil {
		h.logger.Error("read form", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read the submitted form"})
		return
	}
	defer closeFile()

	// The submission is not cancelled when the browser goes away.
	ctx := context.WithoutCancel(c.Request.Context())

	if strings.Contains(c.GetHeader("Accept"), mimeEventStream) {
		ui := newSSEReporter(c)
		res, _ := h.controller.Submit(ctx, in, ui)
		final := submitResponse{Status: ui.last.Message, Kind: ui.last.Kind}
		if res != nil {
			final.ReportID = res.ReportID
		}
		ui.result(final)
		return
	}

	ui := &collectReporter{}
	res, err := h.controller.Submit(ctx, in, ui)
	status := ui.final()
	code := statusCode(err)

	switch c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) {
	case gin.MIMEHTML:
		// A successful submit resets the form under a fresh id.
		values := &model.ReportFormInput{}
		if err != nil {
			values = in
		}
		c.HTML(code, "form.html", h.page(status, values))
	default:
		out := submitResponse{Status: status.Message, Kind: status.Kind, Progress: ui.progress}
		if res != nil {
			out.ReportID = res.ReportID
		}
		c.JSON(code, out)
	}
}

// Handles GET /quote - returns the banner quote currently shown.
func (h *FormHandler) Quote(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"quote": h.quotes.Current()})
}

// Handles GET /forms/:id/busy - whether a submission for the form is running,
// so a reloaded page can keep its submit control disabled.
func (h *FormHandler) FormBusy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"formId": c.Param("id"), "busy": h.controller.Busy(c.Param("id"))})
}

func (h *FormHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// page builds template data. values without a FormID get a new one.
func (h *FormHandler) page(status model.Status, values *model.ReportFormInput) pageData {
	formID := values.FormID
	if formID == "" {
		formID = uuid.NewString()
	}
	return pageData{
		FormID: formID,
		Busy:   h.controller.Busy(formID),
		Quote:  h.quotes.Current(),
		Year:   time.Now().Year(),
		Status: status,
		Values: values,
	}
}

func statusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var vErr *controller.ValidationError
	var busy *controller.BusyError
	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest
	case errors.As(err, &busy):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

// readForm maps the posted fields onto the input by their form tags and
// opens the optional photo. Validation runs later, after trimming. The
// returned func closes the opened file.
func readForm(c *gin.Context) (*model.ReportFormInput, func(), error) {
	noop := func() {}
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, err
	}

	in := &model.ReportFormInput{}
	if err := binding.MapFormWithTag(in, c.Request.PostForm, "form"); err != nil {
		return nil, noop, err
	}
	if in.FormID == "" {
		in.FormID = uuid.NewString()
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		// Missing photo is reported by validation.
		return in, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	in.File = &model.MediaFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     f,
	}
	return in, func() { f.Close() }, nil
}
