// Package metrics exports Prometheus metrics for the audit handlers.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/services"
)

// Metrics holds the service collectors
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	GeneratorCalls   *prometheus.CounterVec
	AuditsScored     *prometheus.CounterVec
	LinksRankedTotal prometheus.Counter
}

// New registers all collectors on a fresh registry, so tests can build
// as many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seo_audit_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "seo_audit_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		GeneratorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seo_audit_generator_calls_total",
			Help: "Text generator calls by purpose and outcome (ok, upstream_error, parse_error, incomplete)",
		}, []string{"purpose", "outcome"}),
		AuditsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seo_audit_audits_scored_total",
			Help: "Completed audits by score bucket",
		}, []string{"bucket"}),
		LinksRankedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "seo_audit_link_opportunities_ranked_total",
			Help: "Link opportunities ranked",
		}),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.GeneratorCalls, m.AuditsScored, m.LinksRankedTotal)
	return m
}

// Handler serves the registry for /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request count and latency. The route label is the
// matched ServeMux pattern, which keeps label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rw.status)).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// GeneratorCall counts one text generator call by purpose and outcome
func (m *Metrics) GeneratorCall(purpose, outcome string) {
	m.GeneratorCalls.WithLabelValues(purpose, outcome).Inc()
}

func (m *Metrics) AuditScored(bucket string) {
	m.AuditsScored.WithLabelValues(bucket).Inc()
}

func (m *Metrics) LinksRanked(n int) {
	m.LinksRankedTotal.Add(float64(n))
}

var _ services.Observer = (*Metrics)(nil)
