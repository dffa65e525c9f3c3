package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.Ping(ctx); err != nil {
		h.entry(c, "handlers.HealthCheck").WithError(err).Warn("database unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "degraded",
			"message":   "Database unreachable",
			"timestamp": time.Now().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "CleanTrack is running",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
