package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/persistorai/vitiapi/internal/metrics"
	"github.com/persistorai/vitiapi/internal/middleware"
)

func TestPrometheusMiddleware_LabelsByRoute(t *testing.T) {
	r := gin.New()
	r.Use(middleware.PrometheusMiddleware())
	r.GET("/api/v1/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	route := metrics.RequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/products/:id", "200")
	unmatched := metrics.RequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	beforeRoute, beforeUnmatched := testutil.ToFloat64(route), testutil.ToFloat64(unmatched)

	for _, path := range []string{"/api/v1/products/1", "/api/v1/products/2", "/wp-login.php"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}

	if got := testutil.ToFloat64(route) - beforeRoute; got != 2 {
		t.Errorf("route counter delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(unmatched) - beforeUnmatched; got != 1 {
		t.Errorf("unmatched counter delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.RequestsInFlight); got != 0 {
		t.Errorf("in-flight gauge = %v after requests, want 0", got)
	}
}
