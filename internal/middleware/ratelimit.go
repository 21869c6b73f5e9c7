package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Limiter counts hits per key. *redisstate.RateLimiter implements it.
type Limiter interface {
	Exceeded(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit allows maxRequests per client IP within each window.
func RateLimit(limiter Limiter, maxRequests int, window time.Duration) gin.HandlerFunc {
	if limiter == nil {
		panic("Limiter cannot be nil for RateLimit middleware")
	}
	if maxRequests <= 0 {
		panic("maxRequests must be positive for RateLimit middleware")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimit middleware")
	}

	return func(c *gin.Context) {
		// Behind a proxy this relies on gin's trusted proxy settings.
		exceeded, err := limiter.Exceeded(c.Request.Context(), c.ClientIP(), maxRequests, window)
		if err != nil {
			logrus.WithError(err).Error("RateLimit: counter update failed")
			abort(c, http.StatusInternalServerError, "Error de limitación de solicitudes")
			return
		}
		if exceeded {
			logrus.WithField("client_ip", c.ClientIP()).Warn("RateLimit: too many requests")
			abort(c, http.StatusTooManyRequests, "Demasiadas solicitudes")
			return
		}
		c.Next()
	}
}
