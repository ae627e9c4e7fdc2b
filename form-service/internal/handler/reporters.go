package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vinittippanawar/click-clean-waste-reporting/form-service/internal/model"
)

// collectReporter keeps every status so the final response can list the
// progress the user would have seen.
type collectReporter struct {
	progress []model.Status
	loading  bool
}

func (r *collectReporter) SetStatus(s model.Status) {
	r.progress = append(r.progress, s)
}

func (r *collectReporter) SetLoading(loading bool) {
	r.loading = loading
}

func (r *collectReporter) final() model.Status {
	if len(r.progress) == 0 {
		return model.Status{}
	}
	return r.progress[len(r.progress)-1]
}

// sseReporter pushes status changes to the browser as they happen.
type sseReporter struct {
	c    *gin.Context
	last model.Status
}

func newSSEReporter(c *gin.Context) *sseReporter {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	return &sseReporter{c: c}
}

func (r *sseReporter) SetStatus(s model.Status) {
	r.last = s
	r.c.SSEvent("status", s)
	r.c.Writer.Flush()
}

func (r *sseReporter) SetLoading(loading bool) {
	r.c.SSEvent("loading", gin.H{"loading": loading})
	r.c.Writer.Flush()
}

func (r *sseReporter) result(res submitResponse) {
	r.c.SSEvent("result", res)
	r.c.Writer.Flush()
}
