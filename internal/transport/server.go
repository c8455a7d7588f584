// Package transport provides the WebSocket connection layer the signaling
// hub routes through: connection lifecycle, stream broadcast groups, and
// fire-and-forget delivery. It knows nothing about stream semantics beyond
// group membership.
package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dgnsrekt/live_relay/internal/metrics"
	"github.com/dgnsrekt/live_relay/internal/signaling"
	"github.com/gobwas/ws"
	"github.com/google/uuid"
)

const defaultSendBuffer = 256

// EventSink receives decoded inbound events, one Submit per envelope plus a
// single synthesized disconnect when the connection drops.
type EventSink interface {
	Submit(evt signaling.Event)
}

// Server upgrades HTTP requests to WebSocket connections and implements the
// signaling.Transport broadcast primitives over them.
type Server struct {
	allowedOrigins map[string]bool // nil means allow any origin
	sendBuffer     int
	metrics        *metrics.Metrics
	sink           EventSink

	mu      sync.RWMutex
	clients map[string]*client
	groups  map[string]map[string]*client
}

// NewServer creates a connection server. An empty origins list, or one
// containing "*", disables the origin check.
func NewServer(allowedOrigins []string, sendBuffer int, m *metrics.Metrics) *Server {
	var origins map[string]bool
	for _, o := range allowedOrigins {
		if o == "*" {
			origins = nil
			break
		}
		if origins == nil {
			origins = make(map[string]bool)
		}
		origins[o] = true
	}
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Server{
		allowedOrigins: origins,
		sendBuffer:     sendBuffer,
		metrics:        m,
		clients:        make(map[string]*client),
		groups:         make(map[string]map[string]*client),
	}
}

// SetSink wires the event consumer. Must be called before Handler serves
// traffic.
func (s *Server) SetSink(sink EventSink) {
	s.sink = sink
}

// Handler returns the WebSocket upgrade endpoint.
func (s *Server) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.originAllowed(r.Header.Get("Origin")) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			slog.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}

		c := &client{
			id:   uuid.NewString(),
			conn: conn,
			send: make(chan []byte, s.sendBuffer),
		}
		s.mu.Lock()
		s.clients[c.id] = c
		s.mu.Unlock()

		s.metrics.ConnectionsTotal.Inc()
		s.metrics.ConnectionsActive.Inc()
		slog.Debug("connection opened", "conn_id", c.id, "remote", r.RemoteAddr)

		go c.writeLoop()
		go s.readLoop(c)
	}
}

// originAllowed applies the configured origin allowlist. Requests without an
// Origin header (non-browser clients) are always accepted.
func (s *Server) originAllowed(origin string) bool {
	if s.allowedOrigins == nil || origin == "" {
		return true
	}
	return s.allowedOrigins[origin]
}

// readLoop decodes inbound envelopes and feeds them to the sink. On any read
// error the connection is dropped and exactly one disconnect event is
// emitted.
func (s *Server) readLoop(c *client) {
	defer s.drop(c)
	for {
		data, err := c.readText()
		if err != nil {
			return
		}
		if data == nil {
			continue
		}
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			slog.Debug("undecodable envelope dropped", "conn_id", c.id)
			continue
		}
		if env.Event == signaling.EventDisconnect {
			// Reserved for the transport; clients cannot spoof it.
			continue
		}
		s.sink.Submit(signaling.Event{ConnID: c.id, Name: env.Event, Data: env.Data})
	}
}

// drop unregisters a connection from the client table and every group, then
// notifies the sink. Safe to call once per connection; readLoop is the only
// caller.
func (s *Server) drop(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	for streamID, members := range s.groups {
		delete(members, c.id)
		if len(members) == 0 {
			delete(s.groups, streamID)
		}
	}
	s.mu.Unlock()

	c.close()
	s.metrics.ConnectionsActive.Dec()
	slog.Debug("connection closed", "conn_id", c.id)
	s.sink.Submit(signaling.Event{ConnID: c.id, Name: signaling.EventDisconnect})
}

// ClientCount returns the number of open connections.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close tears down every open connection. Readers observe the socket close
// and emit their disconnect events as usual.
func (s *Server) Close() {
	s.mu.RLock()
	conns := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.RUnlock()
	for _, c := range conns {
		_ = c.conn.Close()
	}
}
