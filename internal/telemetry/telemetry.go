// Package telemetry exposes the service's Prometheus metrics.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// --- CUSTOM METRIC DEFINITIONS ---

var (
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anpgru_upstream_requests_total",
			Help: "Upstream fetches issued, labeled by kind (page or report) and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	upstreamRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anpgru_upstream_request_duration_seconds",
			Help:    "Histogram of upstream fetch latencies, labeled by kind.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)

	upstreamBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anpgru_upstream_bytes_total",
			Help: "Bytes downloaded from upstream, labeled by kind.",
		},
		[]string{"kind"},
	)

	extractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anpgru_extractions_total",
			Help: "Report extractions attempted, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	cacheEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anpgru_cache_events_total",
			Help: "Result cache lookups, labeled by event (hit, miss, bypass).",
		},
		[]string{"event"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// --- HTTP HANDLER & MIDDLEWARE ---

// Handler returns the standard Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		ObserveHTTPRequest(r.Method, routePattern, ww.statusCode, time.Since(start))
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

// --- HELPER FUNCTIONS ---

// ObserveUpstreamRequest records one outbound fetch. Durations are only
// meaningful for completed requests, so zero durations skip the histogram.
func ObserveUpstreamRequest(kind, outcome string, duration time.Duration, bytes int) {
	upstreamRequestsTotal.WithLabelValues(kind, outcome).Inc()
	if duration > 0 {
		upstreamRequestDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
	}
	if bytes > 0 {
		upstreamBytesTotal.WithLabelValues(kind).Add(float64(bytes))
	}
}

// ObserveExtraction records the outcome of reducing a report to a payload.
func ObserveExtraction(outcome string) {
	extractionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCacheEvent records a result cache lookup.
func ObserveCacheEvent(event string) {
	cacheEventsTotal.WithLabelValues(event).Inc()
}

// ObserveHTTPRequest records metrics for an HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
