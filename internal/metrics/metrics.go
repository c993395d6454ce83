package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dreschagin/reader-server/internal/httpx"
	"github.com/dreschagin/reader-server/internal/routing"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles prometheus collectors used by the asset server.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	BytesServed        *prometheus.CounterVec
	ResolveFailures    *prometheus.CounterVec
	RateLimitDropped   prometheus.Counter
	Panics             prometheus.Counter
}

func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reader_requests_total",
			Help: "Total number of asset HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reader_request_duration_seconds",
			Help:    "Asset request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		BytesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reader_bytes_served_total",
			Help: "Total number of asset body bytes written.",
		}, []string{"route"}),
		ResolveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reader_resolve_failures_total",
			Help: "Asset requests that ended without delivery, by reason.",
		}, []string{"route", "reason"}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reader_ratelimit_dropped_total",
			Help: "Total number of requests dropped by rate limiter.",
		}),
		Panics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reader_handler_panics_total",
			Help: "Total number of recovered handler panics.",
		}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSec,
		m.BytesServed,
		m.ResolveFailures,
		m.RateLimitDropped,
		m.Panics,
	)

	return m
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		recorder := httpx.NewStatusRecorder(w)

		next.ServeHTTP(recorder, r)

		status := strconv.Itoa(recorder.Status())
		route := Route(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

// Route returns a bounded label for path so arbitrary file names do not
// explode label cardinality.
func Route(path string) string {
	target, _, ok := routing.Match(path)
	if !ok {
		return "other"
	}
	return string(target)
}
