package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.TransactionCreated("deposit", "completed")
	m.TransactionCreated("deposit", "completed")
	m.TransactionCreated("payment", "failed")
	m.AttestationFailed()
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)
	m.StatusChanged("cancelled")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactionsCreated.WithLabelValues("deposit", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactionsCreated.WithLabelValues("payment", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attestationFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheRequests.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statusChanges.WithLabelValues("cancelled")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/health", http.StatusOK, 15*time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `saveai_http_request_duration_seconds_count{code="200",method="GET",route="/health"} 1`)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TransactionCreated("deposit", "completed")
		m.AttestationFailed()
		m.CacheLookup(true)
		m.StatusChanged("failed")
		m.ObserveRequest("GET", "/", 200, time.Second)
	})
	assert.Nil(t, m.Registry())

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
