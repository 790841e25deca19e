package web

import (
	"time"

	"flight-dashboard/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// state polling is too chatty for info
		logFn := log.Info
		if c.FullPath() == "/api/state" {
			logFn = log.Debug
		}
		if c.Writer.Status() >= 500 {
			logFn = log.Error
		}

		logFn("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"clientIP", c.ClientIP(),
		)
	}
}
