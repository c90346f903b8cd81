package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRealtimeCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRealtime(reg)

	m.SetConnections(3)
	m.ObserveMessage("ADD_TODO", "ok")
	m.ObserveMessage("ADD_TODO", "ok")
	m.ObserveMessage("DELETE_TODO", "error")
	m.ObserveTermination("heartbeat")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.connections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("ADD_TODO", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("DELETE_TODO", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.terminations.WithLabelValues("heartbeat")))
}

func TestNilRealtimeIsNoop(t *testing.T) {
	var m *Realtime
	assert.NotPanics(t, func() {
		m.SetConnections(1)
		m.ObserveMessage("X", "ok")
		m.ObserveBroadcast()
		m.ObserveTermination("slow")
	})
}
