package middleware

import (
	"strconv"
	"time"

	"review-sentiment/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Observe creates a Gin middleware that records request metrics and logs
// failed requests.
func Observe(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(status), elapsed)

		if status >= 500 {
			logger.Error("Request failed",
				zap.String("method", c.Request.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("elapsed", elapsed),
				zap.Strings("errors", c.Errors.Errors()))
		} else {
			logger.Debug("Request served",
				zap.String("method", c.Request.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("elapsed", elapsed))
		}
	}
}

// CORS allows the JSON API to be called from other origins.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
