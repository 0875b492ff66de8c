package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetHealth handles GET /api/health.
func (h *Handler) GetHealth(c *gin.Context) {
	status := "healthy"
	dbStatus := "connected"

	sqlDB, err := h.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		status = "unhealthy"
		dbStatus = "disconnected"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC(),
	})
}
