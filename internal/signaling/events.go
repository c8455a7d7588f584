package signaling

import "encoding/json"

// Inbound event names. Disconnect is synthesized by the transport when a
// connection drops; it never arrives on the wire.
const (
	EventJoinStream       = "join-stream"
	EventLeaveStream      = "leave-stream"
	EventStreamStarted    = "stream-started"
	EventStreamEnded      = "stream-ended"
	EventGetActiveStreams = "get-active-streams"
	EventOffer            = "offer"
	EventAnswer           = "answer"
	EventICECandidate     = "ice-candidate"
	EventRequestStream    = "request-stream"
	EventChatMessage      = "chat-message"
	EventDisconnect       = "disconnect"
)

// Outbound event names.
const (
	EventViewerCount       = "viewer-count"
	EventStreamListUpdated = "stream-list-updated"
	EventActiveStreams     = "active-streams"
)

// Event is a single inbound event delivered by the transport: the connection
// it arrived on, the event name, and the raw JSON payload.
type Event struct {
	ConnID string
	Name   string
	Data   json.RawMessage
}

// Message is an outbound envelope sent back through the transport.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Transport is the connection collaborator the hub routes through. All sends
// are fire-and-forget: delivery to a gone or slow connection is silently
// dropped.
type Transport interface {
	// JoinGroup adds a connection to a stream's broadcast group.
	JoinGroup(streamID, connID string)
	// LeaveGroup removes a connection from a stream's broadcast group.
	LeaveGroup(streamID, connID string)
	// Broadcast sends to every member of a stream's group.
	Broadcast(streamID string, msg Message)
	// BroadcastExcept sends to every member of a stream's group except one.
	BroadcastExcept(streamID, exceptID string, msg Message)
	// BroadcastAll sends to every connected client.
	BroadcastAll(msg Message)
	// Send sends to a single connection.
	Send(connID string, msg Message)
}
