package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Maclenn77/ticha/models"
)

// Health returns a handler for GET /health.
func Health(version string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
		})
	}
}
