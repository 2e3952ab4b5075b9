// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Signup outcomes.
const (
	SignupCreated   = "created"
	SignupDenied    = "denied"
	SignupInvalid   = "invalid"
	SignupDuplicate = "duplicate"
)

// Metrics holds all Prometheus metrics for the web server. It uses its own registry so
// tests can create independent instances.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	signupAttempts      *prometheus.CounterVec
	loginAttempts       *prometheus.CounterVec
	expiredSessions     prometheus.Counter

	registry *prometheus.Registry
}

// New creates a Metrics instance with Go runtime and process collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status code",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		signupAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signup_attempts_total",
				Help: "Signup attempts by outcome (created, denied, invalid, duplicate)",
			},
			[]string{"outcome"},
		),
		loginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "login_attempts_total",
				Help: "Login attempts by outcome (success, failure)",
			},
			[]string{"outcome"},
		),
		expiredSessions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sessions_expired_deleted_total",
				Help: "Expired sessions removed by the background sweep",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.signupAttempts,
		m.loginAttempts,
		m.expiredSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordSignup counts one signup attempt with the given outcome.
func (m *Metrics) RecordSignup(outcome string) {
	m.signupAttempts.WithLabelValues(outcome).Inc()
}

// RecordLogin counts one login attempt.
func (m *Metrics) RecordLogin(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordExpiredSessionsDeleted adds n to the sweep counter.
func (m *Metrics) RecordExpiredSessionsDeleted(n int64) {
	if n > 0 {
		m.expiredSessions.Add(float64(n))
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request count and latency labeled by the matched chi route pattern.
// Unmatched paths are recorded as "unmatched" to keep label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RecordHTTPRequest(r.Method, routePattern(r), strconv.Itoa(status), time.Since(start))
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
