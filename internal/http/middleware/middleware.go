// Package middleware provides HTTP middleware for the ops API.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"time"

	"zaakbrug_backend/internal/http/response"
	"zaakbrug_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// RequestTimer logs every request with its latency.
func RequestTimer(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http_request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", float64(time.Since(start).Microseconds())/1000.0,
		)
	}
}

// OpsAuth guards the ops endpoints with a shared internal token. This API
// is an internal operator surface; end-user authentication is handled
// upstream and out of scope here.
func OpsAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			response.Error(c, http.StatusServiceUnavailable, "ops token not configured", nil)
			c.Abort()
			return
		}

		provided := c.GetHeader("X-Ops-Token")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			response.Error(c, http.StatusUnauthorized, "invalid ops token", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
