package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vinittippanawar/click-clean-waste-reporting/report-service/internal/storage"
)

// ObjectStore is the local stand-in for the S3 bucket.
type ObjectStore interface {
	Verify(token, key, contentType string) error
	Put(key string, r io.Reader) error
	Open(key string) (io.ReadCloser, error)
	Has(key string) bool
}

type UploadHandler struct {
	store  ObjectStore
	logger *slog.Logger
}

func NewUploadHandler(store ObjectStore, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{store: store, logger: logger.With("component", "upload_handler")}
}

// Handles PUT /uploads/*key?token= - accepts the body when the token was
// issued for this key and content type.
func (h *UploadHandler) Put(c *gin.Context) {
	key, ok := objectKey(c)
	if !ok {
		h.logger.Warn("upload rejected", "key", c.Param("key"), "error", storage.ErrInvalidKey)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid object key"})
		return
	}
	if err := h.store.Verify(c.Query("token"), key, c.GetHeader("Content-Type")); err != nil {
		h.logger.Warn("upload rejected", "key", key, "error", err)
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired upload token"})
		return
	}

	if err := h.store.Put(key, c.Request.Body); err != nil {
		h.logger.Error("store upload", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store object"})
		return
	}

	h.logger.Info("object stored", "key", key, "size", c.Request.ContentLength)
	c.Status(http.StatusOK)
}

// Handles GET /uploads/*key.
func (h *UploadHandler) Get(c *gin.Context) {
	key, ok := objectKey(c)
	if !ok || !h.store.Has(key) {
		c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
		return
	}

	rc, err := h.store.Open(key)
	if err != nil {
		h.logger.Error("open object", "key", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read object"})
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, "application/octet-stream", rc, nil)
}

func objectKey(c *gin.Context) (string, bool) {
	key, err := storage.CleanKey(strings.TrimPrefix(c.Param("key"), "/"))
	return key, err == nil
}
