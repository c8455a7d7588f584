package signaling

import "encoding/json"

type viewerCountPayload struct {
	StreamID string `json:"streamId"`
	Count    int    `json:"count"`
}

type streamRefPayload struct {
	StreamID string `json:"streamId"`
}

type streamListPayload struct {
	Streams []StreamSession `json:"streams"`
}

// decodeStreamRef extracts the required streamId field; a missing field
// marks the payload malformed.
func decodeStreamRef(data json.RawMessage) (string, bool) {
	var p streamRefPayload
	if err := json.Unmarshal(data, &p); err != nil || p.StreamID == "" {
		return "", false
	}
	return p.StreamID, true
}

func (h *Hub) handleJoinStream(evt Event) {
	streamID, ok := decodeStreamRef(evt.Data)
	if !ok {
		h.dropMalformed(evt)
		return
	}
	h.transport.JoinGroup(streamID, evt.ConnID)
	count := h.tracker.Join(streamID, evt.ConnID)
	h.metrics.ViewersActive.Set(float64(h.tracker.TotalViewers()))
	h.transport.Broadcast(streamID, Message{
		Event: EventViewerCount,
		Data:  viewerCountPayload{StreamID: streamID, Count: count},
	})
}

func (h *Hub) handleLeaveStream(evt Event) {
	streamID, ok := decodeStreamRef(evt.Data)
	if !ok {
		h.dropMalformed(evt)
		return
	}
	h.transport.LeaveGroup(streamID, evt.ConnID)
	count, existed := h.tracker.Leave(streamID, evt.ConnID)
	if !existed {
		return
	}
	h.metrics.ViewersActive.Set(float64(h.tracker.TotalViewers()))
	h.transport.Broadcast(streamID, Message{
		Event: EventViewerCount,
		Data:  viewerCountPayload{StreamID: streamID, Count: count},
	})
}

func (h *Hub) handleStreamStarted(evt Event) {
	var p struct {
		StreamID   string `json:"streamId"`
		StreamerID string `json:"streamerId"`
	}
	if err := json.Unmarshal(evt.Data, &p); err != nil || p.StreamID == "" || p.StreamerID == "" {
		h.dropMalformed(evt)
		return
	}
	h.registry.Start(p.StreamID, p.StreamerID, evt.ConnID)
	h.transport.JoinGroup(p.StreamID, evt.ConnID)
	h.metrics.StreamsStarted.Inc()
	h.metrics.StreamsActive.Set(float64(h.registry.Len()))
	h.broadcastStreamList()
}

func (h *Hub) handleStreamEnded(evt Event) {
	streamID, ok := decodeStreamRef(evt.Data)
	if !ok {
		h.dropMalformed(evt)
		return
	}
	if !h.registry.End(streamID) {
		return
	}
	h.transport.Broadcast(streamID, Message{
		Event: EventStreamEnded,
		Data:  streamRefPayload{StreamID: streamID},
	})
	h.broadcastStreamList()
	h.tracker.Drop(streamID)
	h.metrics.StreamsEnded.Inc()
	h.metrics.StreamsActive.Set(float64(h.registry.Len()))
	h.metrics.ViewersActive.Set(float64(h.tracker.TotalViewers()))
}

func (h *Hub) handleGetActiveStreams(evt Event) {
	h.transport.Send(evt.ConnID, Message{
		Event: EventActiveStreams,
		Data:  streamListPayload{Streams: h.registry.Snapshot()},
	})
}

// broadcastStreamList notifies every connection that the set of active
// streams changed, carrying the current snapshot so clients need no
// follow-up query.
func (h *Hub) broadcastStreamList() {
	h.transport.BroadcastAll(Message{
		Event: EventStreamListUpdated,
		Data:  streamListPayload{Streams: h.registry.Snapshot()},
	})
}
