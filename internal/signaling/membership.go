package signaling

import "sync"

// StreamCount pairs a stream id with its viewer count after a membership
// change.
type StreamCount struct {
	StreamID string
	Count    int
}

// MembershipTracker maps each stream id to the set of viewer connections
// currently watching it. Viewer sets are created lazily on first join and
// deleted as soon as they become empty, so an entry never exists with size
// zero.
type MembershipTracker struct {
	mu      sync.RWMutex
	viewers map[string]map[string]struct{}
}

func NewMembershipTracker() *MembershipTracker {
	return &MembershipTracker{viewers: make(map[string]map[string]struct{})}
}

// Join adds a viewer to a stream and returns the new count. Joining twice is
// idempotent.
func (t *MembershipTracker) Join(streamID, connID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.viewers[streamID]
	if !ok {
		set = make(map[string]struct{})
		t.viewers[streamID] = set
	}
	set[connID] = struct{}{}
	return len(set)
}

// Leave removes a viewer from a stream. It returns the new count and whether
// the stream had a viewer set at all; callers broadcast nothing when it did
// not.
func (t *MembershipTracker) Leave(streamID, connID string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.viewers[streamID]
	if !ok {
		return 0, false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(t.viewers, streamID)
		return 0, true
	}
	return len(set), true
}

// Count returns the current viewer count for a stream.
func (t *MembershipTracker) Count(streamID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.viewers[streamID])
}

// TotalViewers returns the number of viewer entries across all streams.
func (t *MembershipTracker) TotalViewers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, set := range t.viewers {
		n += len(set)
	}
	return n
}

// Drop removes a stream's viewer set entirely, even if non-empty. Used when
// a stream ends.
func (t *MembershipTracker) Drop(streamID string) {
	t.mu.Lock()
	delete(t.viewers, streamID)
	t.mu.Unlock()
}

// RemoveEverywhere removes a connection from every viewer set it belongs to
// and returns the new count for each affected stream. Sets left empty are
// deleted. Cost is linear in the number of active streams.
func (t *MembershipTracker) RemoveEverywhere(connID string) []StreamCount {
	t.mu.Lock()
	defer t.mu.Unlock()
	var affected []StreamCount
	for streamID, set := range t.viewers {
		if _, ok := set[connID]; !ok {
			continue
		}
		delete(set, connID)
		if len(set) == 0 {
			delete(t.viewers, streamID)
		}
		affected = append(affected, StreamCount{StreamID: streamID, Count: len(set)})
	}
	return affected
}
