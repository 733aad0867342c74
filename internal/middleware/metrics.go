package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mis-educa-api/internal/service"
)

// unmatchedRoute labels requests no route answered, so session keys and tokens in stray URLs
// never become label values.
const unmatchedRoute = "unmatched"

// Metrics records request counts and latency per route template, with the API prefix trimmed
// (e.g. "/attendance/sessions/:id").
func Metrics(metricsSvc *service.MetricsService, apiPrefix string) gin.HandlerFunc {
	prefix := strings.TrimSuffix(apiPrefix, "/")
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, routeLabel(c.FullPath(), prefix), c.Writer.Status(), time.Since(start))
	}
}

func routeLabel(fullPath, prefix string) string {
	if fullPath == "" {
		return unmatchedRoute
	}
	if prefix != "" && strings.HasPrefix(fullPath, prefix+"/") {
		return strings.TrimPrefix(fullPath, prefix)
	}
	return fullPath
}
