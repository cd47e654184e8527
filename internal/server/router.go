package server

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(h *Handler, logger *slog.Logger) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(Recovery())
	r.Use(RequestID())
	r.Use(Logger(logger))

	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/api/v1")
	v1.POST("/sort", h.Sort)
	v1.GET("/runs", h.ListRuns)
	v1.GET("/runs/:id", h.GetRun)

	return r
}
