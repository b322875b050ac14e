// Package metrics exposes Prometheus counters for the auth flows and HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by registration and login counters.
const (
	OutcomeSuccess            = "success"
	OutcomeValidation         = "validation"
	OutcomeDuplicate          = "duplicate"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeStoreError         = "store_error"
	OutcomeError              = "error"
)

type Metrics struct {
	registry      *prometheus.Registry
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	hashDuration  *prometheus.HistogramVec
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// New builds a private registry so tests never collide on the global one.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agri_auth_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agri_auth_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
		hashDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agri_auth_password_hash_seconds",
			Help:    "Time spent in password hash and verify calls",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agri_auth_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agri_auth_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(m.registrations, m.logins, m.hashDuration, m.requests, m.latency)
	return m
}

func (m *Metrics) ObserveRegistration(outcome string) {
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLogin(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveHash(op string, d time.Duration) {
	m.hashDuration.WithLabelValues(op).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Middleware labels requests by chi route pattern so path parameters and
// unmatched paths cannot blow up label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(started).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
