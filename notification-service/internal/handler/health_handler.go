package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/internal/model"
)

type QueueInspector interface {
	QueueStats() ([]model.QueueStats, error)
}

type ProcessedCounter interface {
	Count(ctx context.Context) (int, error)
}

type HealthHandler struct {
	queues    QueueInspector
	processed ProcessedCounter
	started   time.Time
	logger    *slog.Logger
}

func NewHealthHandler(queues QueueInspector, processed ProcessedCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		queues:    queues,
		processed: processed,
		started:   time.Now(),
		logger:    logger.With("component", "health_handler"),
	}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "notification-service",
	})
}

// HealthCheck reports uptime and how many messages have been handled.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := gin.H{
		"status":  "ok",
		"service": "notification-service",
		"uptime":  formatDuration(int64(time.Since(h.started).Seconds())),
	}

	n, err := h.processed.Count(c.Request.Context())
	if err != nil {
		h.logger.Warn("count processed messages", "error", err)
		resp["status"] = "degraded"
		resp["database"] = err.Error()
	} else {
		resp["processed_messages"] = n
	}

	c.JSON(http.StatusOK, resp)
}

// Handles GET /admin/dlq/stats - message and consumer counts per queue.
func (h *HealthHandler) GetDLQStats(c *gin.Context) {
	stats, err := h.queues.QueueStats()
	if err != nil {
		h.logger.Error("queue stats", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queues": stats})
}

func formatDuration(d int64) string {
	return fmt.Sprintf("%ds", d)
}
