package signaling

import "encoding/json"

// SignalingRouter relays negotiation and chat payloads between the members of
// a stream's group. It owns no state; payloads beyond the routing fields are
// treated as opaque and forwarded untouched.
type SignalingRouter struct {
	transport Transport
}

func NewSignalingRouter(t Transport) *SignalingRouter {
	return &SignalingRouter{transport: t}
}

// RelaySignal forwards an offer/answer/ice-candidate/request-stream payload
// to every group member except the sender. The transport primitive is
// room-scoped, not connection-addressed: the payload carries the target
// viewer id so the true recipient self-filters. Returns false when a
// required routing field is missing; the payload is then dropped.
func (r *SignalingRouter) RelaySignal(event, senderID string, data json.RawMessage) bool {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return false
	}
	streamID, ok := payload["streamId"].(string)
	if !ok || streamID == "" {
		return false
	}
	if _, ok := payload["viewerId"].(string); !ok {
		return false
	}
	payload["senderId"] = senderID
	r.transport.BroadcastExcept(streamID, senderID, Message{Event: event, Data: payload})
	return true
}

// RelayChat forwards a chat payload to every member of the stream's group,
// sender included.
func (r *SignalingRouter) RelayChat(senderID string, data json.RawMessage) bool {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return false
	}
	streamID, ok := payload["streamId"].(string)
	if !ok || streamID == "" {
		return false
	}
	if _, ok := payload["message"]; !ok {
		return false
	}
	payload["senderId"] = senderID
	r.transport.Broadcast(streamID, Message{Event: EventChatMessage, Data: payload})
	return true
}
