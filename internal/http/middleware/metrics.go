package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/monaam/reviewflow-sub000/internal/observability"
)

// probeRoutes are polled by the orchestrator and kept out of API metrics.
var probeRoutes = map[string]bool{
	"/healthcheck": true,
	"/readyz":      true,
}

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// Metrics records API request counts and latency labelled by route pattern.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || probeRoutes[c.FullPath()] {
			c.Next()
			return
		}
		m.ApiInflightInc()
		start := time.Now()
		defer func() {
			m.ApiInflightDec()
			m.ObserveAPI(c.Request.Method, routeLabel(c), strconv.Itoa(c.Writer.Status()), time.Since(start))
		}()
		c.Next()
	}
}
