package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "studyroom"

// Realtime holds the websocket and dispatcher collectors. A nil *Realtime is
// valid and records nothing.
type Realtime struct {
	connections  prometheus.Gauge
	messages     *prometheus.CounterVec
	broadcasts   prometheus.Counter
	terminations *prometheus.CounterVec
}

// NewRealtime builds the collectors and registers them on reg when it is not nil.
func NewRealtime(reg prometheus.Registerer) *Realtime {
	m := &Realtime{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "connections",
			Help:      "Live websocket connections in the registry.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "messages_total",
			Help:      "Inbound frames by kind and outcome.",
		}, []string{"kind", "outcome"}),
		broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "broadcasts_total",
			Help:      "Messages fanned out to the registry.",
		}),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "terminations_total",
			Help:      "Connections closed by the server, by reason.",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.connections, m.messages, m.broadcasts, m.terminations)
	}
	return m
}

func (m *Realtime) SetConnections(n int) {
	if m == nil {
		return
	}
	m.connections.Set(float64(n))
}

func (m *Realtime) ObserveMessage(kind, outcome string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(kind, outcome).Inc()
}

func (m *Realtime) ObserveBroadcast() {
	if m == nil {
		return
	}
	m.broadcasts.Inc()
}

func (m *Realtime) ObserveTermination(reason string) {
	if m == nil {
		return
	}
	m.terminations.WithLabelValues(reason).Inc()
}
