package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/registrar-api/internal/service"
)

// Metrics captures per-request counters and latency.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
