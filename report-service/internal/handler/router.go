package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the report API. uploads is nil when objects go to S3 and
// admin is nil when there is no outbox.
func NewRouter(reports *ReportHandler, uploads *UploadHandler, admin *AdminHandler) *gin.Engine {
	r := gin.Default()
	r.Use(CORS(), RequestLogger(reports.logger))

	// CORS also runs on the 404 chain, so OPTIONS never reaches this.
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	r.GET("/health", reports.Health)
	r.POST("/upload-url", reports.UploadURL)
	r.POST("/reports", reports.CreateReport)
	r.GET("/reports/:id", reports.GetReport)

	if uploads != nil {
		r.PUT("/uploads/*key", uploads.Put)
		r.GET("/uploads/*key", uploads.Get)
	}

	if admin != nil {
		r.GET("/admin/outbox/stats", admin.OutboxStats)
	}

	return r
}
