package handler

import "github.com/gin-gonic/gin"

func NewRouter(h *HealthHandler) *gin.Engine {
	r := gin.Default()

	r.GET("/health", h.Health)
	r.GET("/health/detailed", h.HealthCheck)

	admin := r.Group("/admin")
	{
		admin.GET("/dlq/stats", h.GetDLQStats)
	}

	return r
}
