package handler

import (
	"github.com/gin-gonic/gin"
)

// NewRouter wires the form routes onto a gin engine with the default
// middleware.
func NewRouter(h *FormHandler) *gin.Engine {
	r := gin.Default()
	r.SetHTMLTemplate(LoadTemplates())

	r.GET("/health", h.Health)
	r.GET("/", h.ShowForm)
	r.GET("/quote", h.Quote)
	r.POST("/submit", h.Submit)
	r.GET("/forms/:id/busy", h.FormBusy)

	return r
}
