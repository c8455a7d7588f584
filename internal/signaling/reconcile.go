package signaling

// handleDisconnect reconciles registry state after a connection vanishes.
// Both scans run unconditionally: a connection can be a viewer of other
// streams and the streamer of its own at the same time, and both effects
// apply.
func (h *Hub) handleDisconnect(evt Event) {
	connID := evt.ConnID

	for _, sc := range h.tracker.RemoveEverywhere(connID) {
		h.transport.Broadcast(sc.StreamID, Message{
			Event: EventViewerCount,
			Data:  viewerCountPayload{StreamID: sc.StreamID, Count: sc.Count},
		})
	}

	// A streamer's disconnect always kills the session, regardless of
	// remaining viewers.
	for _, streamID := range h.registry.FindByStreamer(connID) {
		h.registry.End(streamID)
		h.transport.Broadcast(streamID, Message{
			Event: EventStreamEnded,
			Data:  streamRefPayload{StreamID: streamID},
		})
		h.broadcastStreamList()
		h.tracker.Drop(streamID)
		h.metrics.StreamsEnded.Inc()
	}

	h.metrics.StreamsActive.Set(float64(h.registry.Len()))
	h.metrics.ViewersActive.Set(float64(h.tracker.TotalViewers()))
}
