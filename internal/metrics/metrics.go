// Package metrics exposes Prometheus instrumentation for the signaling relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the relay.
type Metrics struct {
	// Connection metrics
	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter

	// Stream metrics
	StreamsActive  prometheus.Gauge
	StreamsStarted prometheus.Counter
	StreamsEnded   prometheus.Counter
	ViewersActive  prometheus.Gauge

	// Event metrics
	EventsDispatched *prometheus.CounterVec
	MessagesRelayed  prometheus.Counter
	PayloadsDropped  prometheus.Counter
	SendsDropped     prometheus.Counter
}

// New creates and registers all relay metrics against the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_connections_active",
			Help: "Current number of open WebSocket connections",
		}),
		ConnectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_connections_total",
			Help: "Total number of WebSocket connections accepted",
		}),
		StreamsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_streams_active",
			Help: "Current number of active stream sessions",
		}),
		StreamsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_streams_started_total",
			Help: "Total number of stream sessions started",
		}),
		StreamsEnded: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_streams_ended_total",
			Help: "Total number of stream sessions ended",
		}),
		ViewersActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_viewers_active",
			Help: "Current number of viewer memberships across all streams",
		}),
		EventsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_events_dispatched_total",
			Help: "Total number of inbound events dispatched, by event name",
		}, []string{"event"}),
		MessagesRelayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_messages_relayed_total",
			Help: "Total number of signaling and chat messages relayed",
		}),
		PayloadsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_payloads_dropped_total",
			Help: "Total number of inbound payloads dropped as malformed",
		}),
		SendsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_sends_dropped_total",
			Help: "Total number of outbound messages dropped on full client buffers",
		}),
	}
}
