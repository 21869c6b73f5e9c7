package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health handles GET /health.
func Health(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Metrics serves the default prometheus registry.
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
