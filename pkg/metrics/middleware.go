package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// unmatchedRoute - метка пути для запросов, не попавших ни в один маршрут
const unmatchedRoute = "unmatched"

var skippedPaths = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
}

// GinPrometheusMiddleware собирает http_requests_total, http_request_duration_seconds
// и http_requests_in_flight. Путь берётся из шаблона маршрута gin.
func GinPrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, skip := skippedPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		start := time.Now()

		inFlight := HttpRequestsInFlight.WithLabelValues(serviceName)
		inFlight.Inc()
		defer inFlight.Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := routeLabel(c)

		HttpRequestsTotal.WithLabelValues(serviceName, c.Request.Method, path, status).Inc()
		HttpRequestDuration.WithLabelValues(serviceName, c.Request.Method, path).Observe(duration)
	}
}

// routeLabel возвращает шаблон маршрута (/api/v1/transactions), а не сырой путь,
// чтобы query и произвольные URL не раздували кардинальность
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
