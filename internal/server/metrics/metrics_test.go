package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Login(OutcomeSuccess)
	m.Login(OutcomeInvalidCredentials)
	m.Login(OutcomeInvalidCredentials)
	m.Registration(OutcomeDuplicate)
	m.GuardDecision(DecisionForbidden)
	m.RevokedPurged(3)
	m.RevokedPurged(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues(OutcomeInvalidCredentials)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues(OutcomeDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.guardDecisions.WithLabelValues(DecisionForbidden)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.revokedPurged))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.GuardDecision(DecisionAllowed)
	m.ObserveRequest(http.MethodGet, "/api/v1/users/me", "200", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `quizdeck_access_guard_decisions_total{decision="allowed"} 1`)
	assert.Contains(t, string(body), "quizdeck_http_request_duration_seconds_bucket")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Login(OutcomeSuccess)
		m.Registration(OutcomeSuccess)
		m.GuardDecision(DecisionAllowed)
		m.RevokedPurged(1)
		m.ObserveRequest("GET", "/", "200", time.Millisecond)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
