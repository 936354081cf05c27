package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-client/internal/observability"
)

// Metrics records shell request counts and latency by route template.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.ShellInflightInc()
		defer m.ShellInflightDec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveShell(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
