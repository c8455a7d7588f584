package signaling

import (
	"sync"
	"time"
)

// StreamSession is the active-session record for one published stream.
// StreamerConnID is the transport connection that published it; StreamerID is
// the client-supplied display identity echoed back in stream listings.
type StreamSession struct {
	StreamID       string    `json:"streamId"`
	StreamerID     string    `json:"streamerId"`
	StartedAt      time.Time `json:"startedAt"`
	StreamerConnID string    `json:"-"`
}

// SessionRegistry maps each stream id to its active session. At most one
// session exists per stream id; a second start for the same id overwrites
// the prior record.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]StreamSession
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]StreamSession)}
}

// Start inserts or overwrites the session record for a stream. No check is
// made for an existing streamer; overwriting silently abandons the prior
// streamer's room membership.
func (r *SessionRegistry) Start(streamID, streamerID, connID string) StreamSession {
	s := StreamSession{
		StreamID:       streamID,
		StreamerID:     streamerID,
		StartedAt:      time.Now().UTC(),
		StreamerConnID: connID,
	}
	r.mu.Lock()
	r.sessions[streamID] = s
	r.mu.Unlock()
	return s
}

// End removes the session record and reports whether one existed.
func (r *SessionRegistry) End(streamID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[streamID]
	delete(r.sessions, streamID)
	return ok
}

// FindByStreamer returns every stream id whose session was published by the
// given connection. Linear scan over active sessions.
func (r *SessionRegistry) FindByStreamer(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, s := range r.sessions {
		if s.StreamerConnID == connID {
			ids = append(ids, id)
		}
	}
	return ids
}

// Snapshot returns a point-in-time copy of all active sessions. No ordering
// guarantee.
func (r *SessionRegistry) Snapshot() []StreamSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StreamSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of active sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
