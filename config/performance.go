package config

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SlowRequest is the latency above which a request is logged as slow.
const SlowRequest = 200 * time.Millisecond

func PerformanceLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
		}
		// SSE streams stay open for minutes
		if latency > SlowRequest && c.Writer.Header().Get("Content-Type") != "text/event-stream" {
			log.Warn("slow request", fields...)
			return
		}
		log.Debug("request", fields...)
	}
}
