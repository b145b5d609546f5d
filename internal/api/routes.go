package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jroosing/herald/internal/config"
)

func registerRoutes(r *gin.Engine, h *handler, cfg *config.Config) {
	api := r.Group("/api/v1")

	// Optional API key protection.
	if cfg != nil && cfg.API.APIKey != "" {
		api.Use(requireAPIKey(cfg.API.APIKey))
	}

	api.GET("/health", h.health)
	api.GET("/status", h.status)
	api.GET("/stats", h.stats)
}
