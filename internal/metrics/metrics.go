// Package metrics exposes Prometheus collectors for the HTTP service and the
// track pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spacetrace_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spacetrace_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	trackGenerationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spacetrace_track_generation_seconds",
			Help:    "Time to sample, segment and emit one ground track.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"output"},
	)

	trackSamplesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "spacetrace_track_samples_total",
			Help: "Total number of propagated ground-track samples.",
		},
	)

	trackErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spacetrace_track_errors_total",
			Help: "Track generation failures by kind.",
		},
		[]string{"kind"},
	)

	trackCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spacetrace_track_cache_lookups_total",
			Help: "Track cache lookups by result.",
		},
		[]string{"result"},
	)

	trackCacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spacetrace_track_cache_evictions_total",
			Help: "Track cache entries evicted, by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		trackGenerationSeconds,
		trackSamplesTotal,
		trackErrorsTotal,
		trackCacheLookupsTotal,
		trackCacheEvictionsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTrackGeneration records one completed run. output is "files" or
// "layers".
func ObserveTrackGeneration(output string, d time.Duration, samples int) {
	trackGenerationSeconds.WithLabelValues(output).Observe(d.Seconds())
	trackSamplesTotal.Add(float64(samples))
}

// IncTrackError counts a failed run. kind is "input", "propagation" or "io".
func IncTrackError(kind string) {
	trackErrorsTotal.WithLabelValues(kind).Inc()
}

// IncTrackCacheLookup counts a track cache lookup. result is "hit" or "miss".
func IncTrackCacheLookup(result string) {
	trackCacheLookupsTotal.WithLabelValues(result).Inc()
}

// AddTrackCacheEvictions counts n evicted entries. reason is "capacity" or
// "expired".
func AddTrackCacheEvictions(reason string, n int) {
	trackCacheEvictionsTotal.WithLabelValues(reason).Add(float64(n))
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}

var knownRoutes = map[string]bool{
	"/":                   true,
	"/healthz":            true,
	"/readyz":             true,
	"/metrics":            true,
	"/api/v1/cache/stats": true,
}

const trackPrefix = "/api/v1/track/"

// normalizeRoute maps a request path to a bounded label so scanners and
// per-satellite URLs cannot blow up label cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if id, ok := strings.CutPrefix(path, trackPrefix); ok && id != "" && !strings.Contains(id, "/") {
		return trackPrefix + "{norad_id}"
	}
	return "other"
}
