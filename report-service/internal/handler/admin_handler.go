package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vinittippanawar/click-clean-waste-reporting/internal/logging"
	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/repository"
)

type OutboxStats interface {
	Stats(ctx context.Context) (map[repository.OutboxStatus]int, error)
}

type AdminHandler struct {
	outbox OutboxStats
}

func NewAdminHandler(outbox OutboxStats) *AdminHandler {
	return &AdminHandler{outbox: outbox}
}

// Handles GET /admin/outbox/stats - outbox row counts per status.
func (h *AdminHandler) OutboxStats(c *gin.Context) {
	stats, err := h.outbox.Stats(c.Request.Context())
	if err != nil {
		logging.FromContext(c.Request.Context()).Error("outbox stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read outbox stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"outbox": stats})
}
