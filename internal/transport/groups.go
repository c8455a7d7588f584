package transport

import (
	"encoding/json"
	"log/slog"

	"github.com/dgnsrekt/live_relay/internal/signaling"
)

// JoinGroup adds a connection to a stream's broadcast group. Unknown
// connection ids are ignored.
func (s *Server) JoinGroup(streamID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[connID]
	if !ok {
		return
	}
	members, ok := s.groups[streamID]
	if !ok {
		members = make(map[string]*client)
		s.groups[streamID] = members
	}
	members[connID] = c
}

// LeaveGroup removes a connection from a stream's broadcast group, deleting
// the group when it empties.
func (s *Server) LeaveGroup(streamID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.groups[streamID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(s.groups, streamID)
	}
}

// GroupSize returns the number of connections in a stream's group.
func (s *Server) GroupSize(streamID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.groups[streamID])
}

// Broadcast sends to every member of a stream's group. Sending to a stream
// with no group is a no-op.
func (s *Server) Broadcast(streamID string, msg signaling.Message) {
	data, ok := s.encode(msg)
	if !ok {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.groups[streamID] {
		s.push(c, data)
	}
}

// BroadcastExcept sends to every member of a stream's group except the named
// connection.
func (s *Server) BroadcastExcept(streamID, exceptID string, msg signaling.Message) {
	data, ok := s.encode(msg)
	if !ok {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, c := range s.groups[streamID] {
		if id == exceptID {
			continue
		}
		s.push(c, data)
	}
}

// BroadcastAll sends to every connected client, group member or not.
func (s *Server) BroadcastAll(msg signaling.Message) {
	data, ok := s.encode(msg)
	if !ok {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		s.push(c, data)
	}
}

// Send sends to a single connection. Unknown ids are silently ignored.
// The read lock is held across the push: drop closes the send channel only
// after unregistering under the write lock, so a client found in the table
// cannot have its channel closed mid-send.
func (s *Server) Send(connID string, msg signaling.Message) {
	data, ok := s.encode(msg)
	if !ok {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, found := s.clients[connID]
	if !found {
		return
	}
	s.push(c, data)
}

func (s *Server) encode(msg signaling.Message) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Debug("outbound message encode failed", "event", msg.Event, "error", err)
		return nil, false
	}
	return data, true
}

// push enqueues without blocking; a full buffer drops the message.
func (s *Server) push(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		s.metrics.SendsDropped.Inc()
		slog.Debug("send buffer full, message dropped", "conn_id", c.id)
	}
}
