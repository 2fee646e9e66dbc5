package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for identity lookups.
type Metrics struct {
	// Lookup outcomes by taxonomy kind ("success", "invalid_format", ...)
	LookupOutcome *prometheus.CounterVec

	// Round trip to the identity registry, by outcome
	UpstreamLatency *prometheus.HistogramVec

	// Lookups that joined an in-flight call for the same DNI
	CoalescedLookups prometheus.Counter
}

// New creates the identity metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LookupOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "padron_identity_lookups_total",
			Help: "Total identity lookups by outcome",
		}, []string{"outcome"}),

		UpstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "padron_identity_upstream_duration_seconds",
			Help:    "Duration of identity registry requests by outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),

		CoalescedLookups: factory.NewCounter(prometheus.CounterOpts{
			Name: "padron_identity_coalesced_lookups_total",
			Help: "Lookups served by an in-flight registry call for the same DNI",
		}),
	}
}

// IncrementOutcome records a lookup outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.LookupOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveUpstreamLatency records the duration of one registry request.
func (m *Metrics) ObserveUpstreamLatency(outcome string, d time.Duration) {
	if m != nil {
		m.UpstreamLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// IncrementCoalesced records a lookup that shared another caller's registry call.
func (m *Metrics) IncrementCoalesced() {
	if m != nil {
		m.CoalescedLookups.Inc()
	}
}
