package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveDispatch("LaunchRequest", "launch")
		m.ObserveForward("ok", time.Millisecond)
	})
	assert.Nil(t, m.DispatchCounter("LaunchRequest", "launch"))
}

func TestObserveDispatch(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDispatch("IntentRequest", "executed")
	m.ObserveDispatch("IntentRequest", "executed")
	m.ObserveDispatch("", "not_understood")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DispatchCounter("IntentRequest", "executed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchCounter("none", "not_understood")))
}

func TestObserveForward(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveForward("timeout", 5*time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ForwardCounter("timeout")))

	count, err := testutil.GatherAndCount(reg, "relay_forward_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
