package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes counters and histograms for dispatching and forwarding.
// All methods are safe to call on a nil *Metrics, which disables recording.
type Metrics struct {
	dispatchTotal   *prometheus.CounterVec
	forwardTotal    *prometheus.CounterVec
	forwardDuration prometheus.Histogram
}

// New constructs the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_dispatch_total",
			Help: "Skill events dispatched, by request type and outcome",
		}, []string{"request_type", "outcome"}),
		forwardTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_forward_total",
			Help: "Commands forwarded to the smart-home endpoint, by result",
		}, []string{"result"}),
		forwardDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_forward_duration_seconds",
			Help:    "Round-trip latency of forwarded commands",
			Buckets: prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.dispatchTotal, m.forwardTotal, m.forwardDuration)
	}

	return m
}

// ObserveDispatch counts one dispatched event.
func (m *Metrics) ObserveDispatch(requestType, outcome string) {
	if m == nil {
		return
	}
	if requestType == "" {
		requestType = "none"
	}
	m.dispatchTotal.WithLabelValues(requestType, outcome).Inc()
}

// ObserveForward records the result and latency of one forwarded command.
func (m *Metrics) ObserveForward(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.forwardTotal.WithLabelValues(result).Inc()
	m.forwardDuration.Observe(d.Seconds())
}

// DispatchCounter returns the counter for the given labels, for tests and diagnostics.
func (m *Metrics) DispatchCounter(requestType, outcome string) prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.dispatchTotal.WithLabelValues(requestType, outcome)
}

// ForwardCounter returns the counter for the given forward result.
func (m *Metrics) ForwardCounter(result string) prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.forwardTotal.WithLabelValues(result)
}
