// Package metrics exposes Prometheus collectors for access decisions,
// authentication failures and HTTP traffic.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dom/noteshare/internal/domain"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so that independent instances (one per test
// server) never collide. All methods are safe on a nil receiver.
type Metrics struct {
	registry        *prometheus.Registry
	policyDecisions *prometheus.CounterVec
	authFailures    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		policyDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "noteshare",
			Name:      "policy_decisions_total",
			Help:      "Access policy decisions by action and outcome.",
		}, []string{"action", "outcome"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "noteshare",
			Name:      "auth_failures_total",
			Help:      "Rejected credentials and tokens by reason.",
		}, []string{"reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "noteshare",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "noteshare",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.policyDecisions,
		m.authFailures,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordDecision counts one access decision. outcome is "allow" or the deny
// reason class.
func (m *Metrics) RecordDecision(action string, reason error) {
	if m == nil {
		return
	}
	m.policyDecisions.WithLabelValues(action, outcome(reason)).Inc()
}

func (m *Metrics) RecordAuthFailure(reason error) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(outcome(reason)).Inc()
}

func outcome(reason error) string {
	switch {
	case reason == nil:
		return "allow"
	case errors.Is(reason, domain.ErrAuthentication):
		return "unauthenticated"
	case errors.Is(reason, domain.ErrNotFound):
		return "not_found"
	case errors.Is(reason, domain.ErrTokenExpired):
		return "token_expired"
	case errors.Is(reason, domain.ErrTokenSignatureInvalid):
		return "token_signature"
	case errors.Is(reason, domain.ErrTokenNotYetValid):
		return "token_not_yet_valid"
	case errors.Is(reason, domain.ErrTokenMalformed):
		return "token_malformed"
	}
	return "other"
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency labelled by chi route
// pattern, so ids in paths do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
