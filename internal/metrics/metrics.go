// Package metrics registers the Prometheus collectors exposed at
// /metrics, the ambient observability surface alongside health/ready/live.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urlshort_http_requests_total",
		Help: "Total HTTP requests by route, method and status class.",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "urlshort_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urlshort_cache_hits_total",
		Help: "Multi-layer cache lookups by tier and outcome.",
	}, []string{"tier"})

	RedirectOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urlshort_redirect_outcomes_total",
		Help: "Redirect outcomes by status.",
	}, []string{"outcome"})

	AnalyticsBufferDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "urlshort_analytics_buffer_dropped_total",
		Help: "Analytics events dropped because the ring buffer was full.",
	})
)

// Middleware records request counts and latency histograms per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
		HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, statusClass(c.Writer.Status())).Inc()
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
