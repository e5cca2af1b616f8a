package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/video-transcribe-mcp/logger"
)

// RequestLogger logs every request except /health with method, path,
// status and duration. The level follows the status class.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logger.Fields(
			"method", c.Request.Method,
			logger.FieldPath, c.Request.URL.Path,
			"status", status,
			logger.FieldDuration, time.Since(start).Milliseconds(),
			"client", c.ClientIP(),
		)
		l := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			l.Error("request completed", fields)
		case status >= 400:
			l.Warn("request completed", fields)
		default:
			l.Debug("request completed", fields)
		}
	}
}
