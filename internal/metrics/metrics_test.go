package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/noteshare/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDecision(t *testing.T) {
	m := New()

	m.RecordDecision("read_note", nil)
	m.RecordDecision("read_note", domain.ErrNotFound)
	m.RecordDecision("read_note", fmt.Errorf("wrapped: %w", domain.ErrNotFound))
	m.RecordDecision("update_note", domain.ErrAuthentication)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.policyDecisions.WithLabelValues("read_note", "allow")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.policyDecisions.WithLabelValues("read_note", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.policyDecisions.WithLabelValues("update_note", "unauthenticated")))
}

func TestRecordAuthFailure(t *testing.T) {
	m := New()

	m.RecordAuthFailure(domain.ErrTokenExpired)
	m.RecordAuthFailure(domain.ErrTokenSignatureInvalid)
	m.RecordAuthFailure(domain.ErrTokenExpired)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authFailures.WithLabelValues("token_expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authFailures.WithLabelValues("token_signature")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordDecision("read_note", nil)
		m.RecordAuthFailure(domain.ErrTokenMalformed)
	})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Middleware(next))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/notes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notes/"+id, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/notes/{id}", "404")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "noteshare_http_requests_total")
}
