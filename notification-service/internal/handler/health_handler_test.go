package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinittippanawar/click-clean-waste-reporting/internal/logging"
	"github.com/vinittippanawar/click-clean-waste-reporting/notification-service/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubQueues struct {
	stats []model.QueueStats
	err   error
}

func (s stubQueues) QueueStats() ([]model.QueueStats, error) { return s.stats, s.err }

type stubCounter struct {
	n   int
	err error
}

func (s stubCounter) Count(ctx context.Context) (int, error) { return s.n, s.err }

func get(t *testing.T, r http.Handler, path string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealth(t *testing.T) {
	r := NewRouter(NewHealthHandler(stubQueues{}, stubCounter{n: 7}, logging.Discard()))

	code, body := get(t, r, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])

	code, body = get(t, r, "/health/detailed")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(7), body["processed_messages"])
	assert.Equal(t, "0s", body["uptime"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	r := NewRouter(NewHealthHandler(stubQueues{}, stubCounter{err: errors.New("db down")}, logging.Discard()))

	_, body := get(t, r, "/health/detailed")
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "db down", body["database"])
}

func TestDLQStats(t *testing.T) {
	stats := []model.QueueStats{
		{Queue: "queue.report_created", Messages: 0, Consumers: 1},
		{Queue: "queue.report_created.dlq", Messages: 2},
	}
	r := NewRouter(NewHealthHandler(stubQueues{stats: stats}, stubCounter{}, logging.Discard()))

	code, body := get(t, r, "/admin/dlq/stats")
	require.Equal(t, http.StatusOK, code)
	queues := body["queues"].([]any)
	require.Len(t, queues, 2)
	assert.Equal(t, "queue.report_created.dlq", queues[1].(map[string]any)["queue"])
	assert.Equal(t, float64(2), queues[1].(map[string]any)["messages"])

	r = NewRouter(NewHealthHandler(stubQueues{err: errors.New("connection not available")}, stubCounter{}, logging.Discard()))
	code, _ = get(t, r, "/admin/dlq/stats")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
