package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordProviderAttempt(t *testing.T) {
	before := testutil.ToFloat64(RatesProviderAttempts.WithLabelValues("server_error"))

	RecordProviderAttempt("server_error", 10*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(RatesProviderAttempts.WithLabelValues("server_error")))
}

func TestRecordRatesCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(RatesCacheLookups.WithLabelValues("memory", "hit"))
	misses := testutil.ToFloat64(RatesCacheLookups.WithLabelValues("memory", "miss"))

	RecordRatesCacheLookup("memory", true)
	RecordRatesCacheLookup("memory", false)
	RecordRatesCacheLookup("memory", false)

	assert.Equal(t, hits+1, testutil.ToFloat64(RatesCacheLookups.WithLabelValues("memory", "hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(RatesCacheLookups.WithLabelValues("memory", "miss")))
}

func TestGinPrometheusMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinPrometheusMiddleware("exchange-service-test"))
	router.GET("/api/v1/rates", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := HttpRequestsTotal.WithLabelValues("exchange-service-test", http.MethodGet, "/api/v1/rates", "200")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/api/v1/rates", "/health"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
	}

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Equal(t, float64(0), testutil.ToFloat64(
		HttpRequestsTotal.WithLabelValues("exchange-service-test", http.MethodGet, "/health", "200")))
}

func TestGinPrometheusMiddleware_RouteTemplateLabel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinPrometheusMiddleware("exchange-service-route"))
	router.GET("/api/v1/transactions", func(c *gin.Context) { c.Status(http.StatusOK) })

	templated := HttpRequestsTotal.WithLabelValues("exchange-service-route", http.MethodGet, "/api/v1/transactions", "200")
	unmatched := HttpRequestsTotal.WithLabelValues("exchange-service-route", http.MethodGet, unmatchedRoute, "404")
	beforeTemplated := testutil.ToFloat64(templated)
	beforeUnmatched := testutil.ToFloat64(unmatched)

	for _, path := range []string{"/api/v1/transactions?user_id=42", "/api/v1/unknown"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
	}

	assert.Equal(t, beforeTemplated+1, testutil.ToFloat64(templated))
	assert.Equal(t, beforeUnmatched+1, testutil.ToFloat64(unmatched))
}
