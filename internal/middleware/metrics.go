package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loadlink/loadlink-backend/internal/metrics"
)

// MetricsMiddleware records request count, latency and in-flight gauge for
// every route.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.RequestsInFlight.Inc()

		c.Next()

		metrics.RequestsInFlight.Dec()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		metrics.RequestsTotal.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		metrics.RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}
