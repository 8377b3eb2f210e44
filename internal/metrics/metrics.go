// Package metrics exposes Prometheus counters for the request pipeline.
// Labels are restricted to method and status to avoid path-cardinality
// explosions.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus registry and instruments.
type Metrics struct {
	reg     *prometheus.Registry
	handler http.Handler

	reqTotal         *prometheus.CounterVec
	inflight         prometheus.Gauge
	rateLimitDenied  prometheus.Counter
	sanitizeRejected prometheus.Counter
	panicsRecovered  prometheus.Counter
}

// New creates a fresh registry with the standard process collectors plus the
// pipeline instruments.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		reqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method and status",
		}, []string{"method", "status"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests",
		}),
		rateLimitDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_requests_rate_limited_total",
			Help: "Total requests denied by the rate limiter",
		}),
		sanitizeRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_requests_sanitization_rejected_total",
			Help: "Total requests rejected by the sanitization stage",
		}),
		panicsRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_panic_total",
			Help: "Total recovered handler panics",
		}),
	}
	reg.MustRegister(m.reqTotal, m.inflight, m.rateLimitDenied, m.sanitizeRejected, m.panicsRecovered)

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
	m.reg = reg
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Middleware counts completed requests by method and status.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.inflight.Inc()
			defer m.inflight.Dec()

			wrapped := &statusCapture{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			m.reqTotal.WithLabelValues(r.Method, strconv.Itoa(wrapped.status)).Inc()
		})
	}
}

// IncRateLimitDenied implements middleware.SecurityMetrics.
func (m *Metrics) IncRateLimitDenied() {
	m.rateLimitDenied.Inc()
}

// IncSanitizationRejected implements middleware.SecurityMetrics.
func (m *Metrics) IncSanitizationRejected() {
	m.sanitizeRejected.Inc()
}

// IncPanicRecovered implements middleware.PanicMetrics.
func (m *Metrics) IncPanicRecovered() {
	m.panicsRecovered.Inc()
}

type statusCapture struct {
	http.ResponseWriter
	status int
}

func (s *statusCapture) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
