// Package signaling implements the session-presence state machine and
// message routing for the broadcast relay: which streams are live, who is
// watching them, and which connections each negotiation or chat message
// should reach.
package signaling

import (
	"context"
	"log/slog"

	"github.com/dgnsrekt/live_relay/internal/metrics"
)

const defaultEventBuffer = 256

// Hub ties the membership tracker, session registry and signaling router
// together behind a single serialized event loop. Events from every
// connection funnel through one channel consumed by one goroutine, so each
// handler runs to completion before the next event is processed and no
// handler ever observes a partially-updated registry.
type Hub struct {
	transport Transport
	tracker   *MembershipTracker
	registry  *SessionRegistry
	router    *SignalingRouter
	metrics   *metrics.Metrics
	events    chan Event
}

// NewHub creates a hub routing through the given transport.
func NewHub(t Transport, m *metrics.Metrics, eventBuffer int) *Hub {
	if eventBuffer <= 0 {
		eventBuffer = defaultEventBuffer
	}
	return &Hub{
		transport: t,
		tracker:   NewMembershipTracker(),
		registry:  NewSessionRegistry(),
		router:    NewSignalingRouter(t),
		metrics:   m,
		events:    make(chan Event, eventBuffer),
	}
}

// Submit queues an inbound event for processing. The send blocks when the
// buffer is full; per-connection arrival order is preserved because each
// connection submits from a single reader goroutine.
func (h *Hub) Submit(evt Event) {
	h.events <- evt
}

// Run consumes and dispatches events until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-h.events:
			h.dispatch(evt)
		}
	}
}

// Snapshot returns the active sessions, for the HTTP streams listing.
func (h *Hub) Snapshot() []StreamSession {
	return h.registry.Snapshot()
}

func (h *Hub) dispatch(evt Event) {
	h.metrics.EventsDispatched.WithLabelValues(evt.Name).Inc()
	switch evt.Name {
	case EventJoinStream:
		h.handleJoinStream(evt)
	case EventLeaveStream:
		h.handleLeaveStream(evt)
	case EventStreamStarted:
		h.handleStreamStarted(evt)
	case EventStreamEnded:
		h.handleStreamEnded(evt)
	case EventGetActiveStreams:
		h.handleGetActiveStreams(evt)
	case EventOffer, EventAnswer, EventICECandidate, EventRequestStream:
		if !h.router.RelaySignal(evt.Name, evt.ConnID, evt.Data) {
			h.dropMalformed(evt)
			return
		}
		h.metrics.MessagesRelayed.Inc()
	case EventChatMessage:
		if !h.router.RelayChat(evt.ConnID, evt.Data) {
			h.dropMalformed(evt)
			return
		}
		h.metrics.MessagesRelayed.Inc()
	case EventDisconnect:
		h.handleDisconnect(evt)
	default:
		slog.Debug("unknown event dropped", "event", evt.Name, "conn_id", evt.ConnID)
	}
}

func (h *Hub) dropMalformed(evt Event) {
	h.metrics.PayloadsDropped.Inc()
	slog.Debug("malformed payload dropped", "event", evt.Name, "conn_id", evt.ConnID)
}
