package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(nil)

	m.ObserveLookup("BTC", time.Millisecond, nil)
	m.ObserveLookup("BTC", time.Millisecond, nil)
	m.ObserveLookup("BTC", time.Millisecond, errors.New("boom"))
	m.PriceRequest("BTC", PriceFetch)
	m.FoundEvent("BTC")
	m.PollerStarted()
	m.PollerStarted()
	m.PollerStopped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AddressesChecked.WithLabelValues("BTC")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LookupErrors.WithLabelValues("BTC")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PriceRequests.WithLabelValues("BTC", PriceFetch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Found.WithLabelValues("BTC")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollersRunning))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "chainscan_poll_addresses_checked_total"))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	// none of these may panic
	m.ObserveLookup("BTC", time.Second, nil)
	m.PriceRequest("BTC", PriceHit)
	m.FoundEvent("BTC")
	m.SinkError("clipboard")
	m.Dropped()
	m.PollerStarted()
	m.PollerStopped()
	assert.NotNil(t, m.Handler())
}
