// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes recorded by the reconciliation engine.
const (
	OutcomeIngested = "ingested"
	OutcomeCreated  = "approved_created"
	OutcomeUpdated  = "approved_updated"
	OutcomeDenied   = "denied"
)

// Metrics collects HTTP and submission metrics in a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	reqTotal      *prometheus.CounterVec
	reqLatency    *prometheus.HistogramVec
	submissions   *prometheus.CounterVec
	notifyFailure prometheus.Counter
	registry      *prometheus.Registry
}

// New builds the collectors and registers them.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		reqTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		reqLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contributor_submissions_total",
				Help: "Pending submissions by lifecycle outcome",
			},
			[]string{"outcome"},
		),
		notifyFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "contributor_notification_failures_total",
			Help: "Status emails that could not be delivered",
		}),
		registry: registry,
	}

	registry.MustRegister(m.reqTotal, m.reqLatency, m.submissions, m.notifyFailure)
	return m
}

// Submission counts one lifecycle outcome.
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// NotificationFailed counts one undelivered status email.
func (m *Metrics) NotificationFailed() {
	if m == nil {
		return
	}
	m.notifyFailure.Inc()
}

// Middleware records request counts and latency, labelled by chi route
// pattern so ids do not explode cardinality.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					path = p
				}
			}
			status := strconv.Itoa(rw.code)
			m.reqTotal.WithLabelValues(r.Method, path, status).Inc()
			m.reqLatency.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}
