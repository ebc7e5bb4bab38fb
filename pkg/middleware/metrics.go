package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wms-platform/picking-orchestrator/pkg/metrics"
)

// probePaths are scraped or polled by the platform and kept out of request metrics
var probePaths = map[string]bool{"/metrics": true, "/health": true, "/ready": true}

// MetricsMiddleware records request count, latency and in-flight gauge per
// route template, so path parameters do not explode label cardinality.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if probePaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		m.IncrementHTTPRequestsInFlight()
		defer m.DecrementHTTPRequestsInFlight()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// MetricsEndpoint serves the Prometheus registry
func MetricsEndpoint(m *metrics.Metrics) gin.HandlerFunc {
	handler := m.Handler()
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
