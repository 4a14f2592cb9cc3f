package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RequestStarted()
		m.RequestFinished("GET", "/x", "200", time.Millisecond)
		m.Submission("sale", OutcomeCommitted)
		m.StockWarning("sale")
		m.CacheLookup("l1", "hit")
		m.Job("warmup", time.Second, errors.New("boom"))
	})
	assert.Nil(t, m.Registry())
}

func TestCounters(t *testing.T) {
	m := New()
	m.Submission("sale", OutcomeCommitted)
	m.Submission("sale", OutcomeCommitted)
	m.Submission("dispatch", OutcomePartial)
	m.Job("warmup", time.Second, errors.New("boom"))
	m.Job("warmup", time.Second, nil)

	body := scrape(t, m)
	assert.Contains(t, body, `blameja_pos_submissions_total{kind="sale",outcome="committed"} 2`)
	assert.Contains(t, body, `blameja_pos_submissions_total{kind="dispatch",outcome="partial"} 1`)
	assert.Contains(t, body, `blameja_scheduler_job_failures_total{job="warmup"} 1`)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.RequestStarted()
	m.RequestFinished("GET", "/api/v1/stock", "200", 10*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `blameja_http_requests_total{method="GET",route="/api/v1/stock",status="200"} 1`)
	assert.Contains(t, body, "blameja_http_requests_in_flight 0")
}
