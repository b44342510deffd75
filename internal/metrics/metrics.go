// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CatalogFetches counts catalog client calls by outcome ("ok", "http_error",
	// "network_error", "decode_error").
	CatalogFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_catalog_fetches_total",
			Help: "Catalog client fetches by outcome",
		},
		[]string{"outcome"},
	)

	// ProxyRequests counts proxied upstream responses by status class.
	ProxyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marquee_catalog_proxy_requests_total",
			Help: "Catalog proxy requests by upstream status class",
		},
		[]string{"status"},
	)

	ScheduleRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marquee_schedule_refresh_duration_seconds",
			Help:    "Time spent rebuilding a user's schedule",
			Buckets: prometheus.DefBuckets,
		},
	)

	ScheduleRefreshFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marquee_schedule_refresh_failures_total",
			Help: "Schedule refreshes that failed and cleared the schedule",
		},
	)

	ProfileWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marquee_profile_write_failures_total",
			Help: "Profile document writes that failed",
		},
	)

	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marquee_rate_limited_requests_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
	)
)

func init() {
	prometheus.MustRegister(
		CatalogFetches,
		ProxyRequests,
		ScheduleRefreshDuration,
		ScheduleRefreshFailures,
		ProfileWriteFailures,
		RateLimited,
	)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StatusClass buckets an HTTP status code as "2xx", "4xx", ...
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	}
	return "other"
}
