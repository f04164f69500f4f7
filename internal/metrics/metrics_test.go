package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("/api/cart", "200", 12*time.Millisecond)
	m.ObserveCheckout("ok")
	m.ObserveCheckout("ok")
	m.ObserveTransition("status", "rejected")
	m.ObserveEventFailure()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/cart", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Checkouts.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("status", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventFailures))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("/", "200", time.Millisecond)
	m.ObserveCheckout("ok")
	m.ObserveTransition("status", "ok")
	m.ObserveEventFailure()
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveCheckout("payment_failed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	res := rec.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `boostmart_checkouts_total{result="payment_failed"} 1`))
}
