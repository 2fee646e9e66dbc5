package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementOutcome("success")
	m.IncrementOutcome("success")
	m.IncrementOutcome("upstream_rejected")
	m.IncrementCoalesced()
	m.ObserveUpstreamLatency("success", 120*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LookupOutcome.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LookupOutcome.WithLabelValues("upstream_rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CoalescedLookups))
	assert.Equal(t, 1, testutil.CollectAndCount(m.UpstreamLatency))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementOutcome("success")
		m.ObserveUpstreamLatency("success", time.Second)
		m.IncrementCoalesced()
	})
}
