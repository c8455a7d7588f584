package signaling

import (
	"encoding/json"
	"testing"

	"github.com/dgnsrekt/live_relay/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type transportCall struct {
	op       string
	streamID string
	connID   string
	msg      Message
}

// fakeTransport records every routing call the hub makes.
type fakeTransport struct {
	calls []transportCall
}

func (f *fakeTransport) JoinGroup(streamID, connID string) {
	f.calls = append(f.calls, transportCall{op: "join", streamID: streamID, connID: connID})
}

func (f *fakeTransport) LeaveGroup(streamID, connID string) {
	f.calls = append(f.calls, transportCall{op: "leave", streamID: streamID, connID: connID})
}

func (f *fakeTransport) Broadcast(streamID string, msg Message) {
	f.calls = append(f.calls, transportCall{op: "broadcast", streamID: streamID, msg: msg})
}

func (f *fakeTransport) BroadcastExcept(streamID, exceptID string, msg Message) {
	f.calls = append(f.calls, transportCall{op: "broadcastExcept", streamID: streamID, connID: exceptID, msg: msg})
}

func (f *fakeTransport) BroadcastAll(msg Message) {
	f.calls = append(f.calls, transportCall{op: "broadcastAll", msg: msg})
}

func (f *fakeTransport) Send(connID string, msg Message) {
	f.calls = append(f.calls, transportCall{op: "send", connID: connID, msg: msg})
}

func (f *fakeTransport) reset() { f.calls = nil }

func (f *fakeTransport) byOp(op string) []transportCall {
	var out []transportCall
	for _, c := range f.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeTransport) byEvent(event string) []transportCall {
	var out []transportCall
	for _, c := range f.calls {
		if c.msg.Event == event {
			out = append(out, c)
		}
	}
	return out
}

func newTestHub(t *testing.T) (*Hub, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{}
	return NewHub(tr, metrics.New(prometheus.NewRegistry()), 16), tr
}

func evt(connID, name, data string) Event {
	return Event{ConnID: connID, Name: name, Data: json.RawMessage(data)}
}

func lastViewerCount(t *testing.T, tr *fakeTransport) viewerCountPayload {
	t.Helper()
	counts := tr.byEvent(EventViewerCount)
	if len(counts) == 0 {
		t.Fatalf("no viewer-count broadcast issued")
	}
	payload, ok := counts[len(counts)-1].msg.Data.(viewerCountPayload)
	if !ok {
		t.Fatalf("viewer-count payload = %T; want viewerCountPayload", counts[len(counts)-1].msg.Data)
	}
	return payload
}

func TestJoinStreamBroadcastsCount(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("b", EventJoinStream, `{"streamId":"s1"}`))
	if got := lastViewerCount(t, tr); got.StreamID != "s1" || got.Count != 1 {
		t.Fatalf("viewer-count = %+v; want {s1 1}", got)
	}

	h.dispatch(evt("c", EventJoinStream, `{"streamId":"s1"}`))
	if got := lastViewerCount(t, tr); got.Count != 2 {
		t.Fatalf("viewer-count after second join = %+v; want count 2", got)
	}

	joins := tr.byOp("join")
	if len(joins) != 2 || joins[0].connID != "b" || joins[1].connID != "c" {
		t.Fatalf("JoinGroup calls = %+v; want b then c on s1", joins)
	}
}

func TestDuplicateJoinDoesNotIncreaseCount(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("b", EventJoinStream, `{"streamId":"s1"}`))
	h.dispatch(evt("b", EventJoinStream, `{"streamId":"s1"}`))

	if got := lastViewerCount(t, tr); got.Count != 1 {
		t.Fatalf("viewer-count after duplicate join = %+v; want count 1", got)
	}
}

func TestLeaveNeverJoinedProducesNoBroadcast(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("b", EventLeaveStream, `{"streamId":"s1"}`))

	if got := tr.byEvent(EventViewerCount); len(got) != 0 {
		t.Fatalf("viewer-count broadcasts = %d; want 0", len(got))
	}
}

func TestLastViewerLeaveResetsStream(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("b", EventJoinStream, `{"streamId":"s1"}`))
	h.dispatch(evt("b", EventLeaveStream, `{"streamId":"s1"}`))
	if got := lastViewerCount(t, tr); got.Count != 0 {
		t.Fatalf("viewer-count after last leave = %+v; want count 0", got)
	}

	h.dispatch(evt("c", EventJoinStream, `{"streamId":"s1"}`))
	if got := lastViewerCount(t, tr); got.Count != 1 {
		t.Fatalf("viewer-count after fresh join = %+v; want count 1", got)
	}
}

func TestStreamStartedRegistersAndNotifiesEveryone(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("a", EventStreamStarted, `{"streamId":"s1","streamerId":"alice"}`))

	joins := tr.byOp("join")
	if len(joins) != 1 || joins[0].streamID != "s1" || joins[0].connID != "a" {
		t.Fatalf("JoinGroup calls = %+v; want streamer joined to s1", joins)
	}
	all := tr.byOp("broadcastAll")
	if len(all) != 1 || all[0].msg.Event != EventStreamListUpdated {
		t.Fatalf("broadcastAll = %+v; want one stream-list-updated", all)
	}
	list, ok := all[0].msg.Data.(streamListPayload)
	if !ok || len(list.Streams) != 1 || list.Streams[0].StreamerID != "alice" {
		t.Fatalf("stream list = %+v; want alice's s1", all[0].msg.Data)
	}
}

func TestStreamEndedUnknownIsNoop(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("a", EventStreamEnded, `{"streamId":"nope"}`))

	if len(tr.calls) != 0 {
		t.Fatalf("transport calls = %+v; want none", tr.calls)
	}
}

func TestStreamEndedClearsSessionAndViewers(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("a", EventStreamStarted, `{"streamId":"s1","streamerId":"alice"}`))
	h.dispatch(evt("b", EventJoinStream, `{"streamId":"s1"}`))
	tr.reset()

	h.dispatch(evt("a", EventStreamEnded, `{"streamId":"s1"}`))

	ended := tr.byEvent(EventStreamEnded)
	if len(ended) != 1 || ended[0].streamID != "s1" {
		t.Fatalf("stream-ended broadcasts = %+v; want one to s1", ended)
	}
	all := tr.byOp("broadcastAll")
	if len(all) != 1 {
		t.Fatalf("broadcastAll calls = %d; want 1", len(all))
	}
	if got := h.registry.Len(); got != 0 {
		t.Fatalf("registry.Len() = %d; want 0", got)
	}
	if got := h.tracker.Count("s1"); got != 0 {
		t.Fatalf("tracker.Count(s1) = %d; want 0", got)
	}
}

func TestGetActiveStreamsRepliesToRequester(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("a", EventStreamStarted, `{"streamId":"s1","streamerId":"alice"}`))
	tr.reset()

	h.dispatch(evt("z", EventGetActiveStreams, `{}`))

	sends := tr.byOp("send")
	if len(sends) != 1 || sends[0].connID != "z" || sends[0].msg.Event != EventActiveStreams {
		t.Fatalf("send calls = %+v; want one active-streams reply to z", sends)
	}
	list, ok := sends[0].msg.Data.(streamListPayload)
	if !ok || len(list.Streams) != 1 || list.Streams[0].StreamID != "s1" {
		t.Fatalf("active-streams payload = %+v; want s1", sends[0].msg.Data)
	}
}

func TestSignalRelayedExcludingSender(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("a", EventOffer, `{"streamId":"s1","viewerId":"v1","sdp":"x"}`))

	relayed := tr.byOp("broadcastExcept")
	if len(relayed) != 1 || relayed[0].streamID != "s1" || relayed[0].connID != "a" {
		t.Fatalf("broadcastExcept calls = %+v; want one on s1 excluding a", relayed)
	}
	if relayed[0].msg.Event != EventOffer {
		t.Fatalf("relayed event = %q; want %q", relayed[0].msg.Event, EventOffer)
	}
	payload, ok := relayed[0].msg.Data.(map[string]any)
	if !ok {
		t.Fatalf("relayed payload = %T; want map", relayed[0].msg.Data)
	}
	if payload["senderId"] != "a" || payload["sdp"] != "x" {
		t.Fatalf("relayed payload = %v; want senderId stamped and body kept", payload)
	}
}

func TestSignalMissingViewerIDDropped(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("a", EventICECandidate, `{"streamId":"s1","candidate":"c"}`))

	if len(tr.calls) != 0 {
		t.Fatalf("transport calls = %+v; want none for malformed signal", tr.calls)
	}
}

func TestChatReachesWholeGroupIncludingSender(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("a", EventChatMessage, `{"streamId":"s1","message":"hi"}`))

	chats := tr.byEvent(EventChatMessage)
	if len(chats) != 1 || chats[0].op != "broadcast" || chats[0].streamID != "s1" {
		t.Fatalf("chat calls = %+v; want one full-group broadcast on s1", tr.calls)
	}
}

func TestMalformedPayloadDroppedWithoutMutation(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("a", EventJoinStream, `{}`))
	h.dispatch(evt("a", EventStreamStarted, `{"streamId":"s1"}`))
	h.dispatch(evt("a", EventChatMessage, `{"streamId":"s1"}`))
	h.dispatch(evt("a", EventOffer, `not json`))

	if len(tr.calls) != 0 {
		t.Fatalf("transport calls = %+v; want none", tr.calls)
	}
	if got := h.registry.Len(); got != 0 {
		t.Fatalf("registry.Len() = %d; want 0", got)
	}
}

func TestViewerDisconnectLeavesOtherStreamsAlone(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("a", EventStreamStarted, `{"streamId":"s1","streamerId":"alice"}`))
	h.dispatch(evt("b", EventJoinStream, `{"streamId":"s1"}`))
	h.dispatch(evt("b", EventJoinStream, `{"streamId":"s2"}`))
	h.dispatch(evt("c", EventJoinStream, `{"streamId":"s3"}`))
	tr.reset()

	h.dispatch(evt("b", EventDisconnect, ``))

	counts := tr.byEvent(EventViewerCount)
	if len(counts) != 2 {
		t.Fatalf("viewer-count broadcasts = %+v; want 2", counts)
	}
	if got := h.tracker.Count("s3"); got != 1 {
		t.Fatalf("tracker.Count(s3) = %d; want 1", got)
	}
	if got := h.registry.Len(); got != 1 {
		t.Fatalf("registry.Len() = %d; want s1 untouched", got)
	}
}

func TestStreamerDisconnectKillsSessionDespiteViewers(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("a", EventStreamStarted, `{"streamId":"s1","streamerId":"alice"}`))
	h.dispatch(evt("b", EventJoinStream, `{"streamId":"s1"}`))
	tr.reset()

	h.dispatch(evt("a", EventDisconnect, ``))

	ended := tr.byEvent(EventStreamEnded)
	if len(ended) != 1 || ended[0].streamID != "s1" {
		t.Fatalf("stream-ended broadcasts = %+v; want one to s1", ended)
	}
	if got := tr.byOp("broadcastAll"); len(got) != 1 {
		t.Fatalf("broadcastAll calls = %d; want 1", len(got))
	}
	if got := h.registry.Len(); got != 0 {
		t.Fatalf("registry.Len() = %d; want 0", got)
	}
	if got := h.tracker.Count("s1"); got != 0 {
		t.Fatalf("tracker.Count(s1) = %d; want viewer set cleared", got)
	}
}

func TestDisconnectAppliesViewerAndStreamerEffects(t *testing.T) {
	h, tr := newTestHub(t)

	// a streams s1 and watches s2 at the same time.
	h.dispatch(evt("a", EventStreamStarted, `{"streamId":"s1","streamerId":"alice"}`))
	h.dispatch(evt("x", EventStreamStarted, `{"streamId":"s2","streamerId":"xena"}`))
	h.dispatch(evt("a", EventJoinStream, `{"streamId":"s2"}`))
	tr.reset()

	h.dispatch(evt("a", EventDisconnect, ``))

	counts := tr.byEvent(EventViewerCount)
	if len(counts) != 1 || counts[0].streamID != "s2" {
		t.Fatalf("viewer-count broadcasts = %+v; want one for s2", counts)
	}
	ended := tr.byEvent(EventStreamEnded)
	if len(ended) != 1 || ended[0].streamID != "s1" {
		t.Fatalf("stream-ended broadcasts = %+v; want one for s1", ended)
	}
	if got := h.registry.Len(); got != 1 {
		t.Fatalf("registry.Len() = %d; want s2 still live", got)
	}
}

// Mirrors the end-to-end churn sequence: start, two joins, viewer drop,
// streamer drop.
func TestBroadcastLifecycle(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("a", EventStreamStarted, `{"streamId":"s1","streamerId":"A"}`))
	if got := h.registry.Len(); got != 1 {
		t.Fatalf("registry.Len() = %d; want 1", got)
	}

	h.dispatch(evt("b", EventJoinStream, `{"streamId":"s1"}`))
	if got := lastViewerCount(t, tr); got.Count != 1 {
		t.Fatalf("step 2 viewer-count = %+v; want 1", got)
	}

	h.dispatch(evt("c", EventJoinStream, `{"streamId":"s1"}`))
	if got := lastViewerCount(t, tr); got.Count != 2 {
		t.Fatalf("step 3 viewer-count = %+v; want 2", got)
	}

	h.dispatch(evt("b", EventDisconnect, ``))
	if got := lastViewerCount(t, tr); got.Count != 1 {
		t.Fatalf("step 4 viewer-count = %+v; want 1", got)
	}

	tr.reset()
	h.dispatch(evt("a", EventDisconnect, ``))
	if got := tr.byEvent(EventStreamEnded); len(got) != 1 {
		t.Fatalf("step 5 stream-ended broadcasts = %d; want 1", len(got))
	}
	if got := h.registry.Len(); got != 0 {
		t.Fatalf("step 5 registry.Len() = %d; want 0", got)
	}
	if got := h.tracker.Count("s1"); got != 0 {
		t.Fatalf("step 5 tracker.Count(s1) = %d; want 0", got)
	}
}

func TestUnknownEventIgnored(t *testing.T) {
	h, tr := newTestHub(t)

	h.dispatch(evt("a", "made-up", `{}`))

	if len(tr.calls) != 0 {
		t.Fatalf("transport calls = %+v; want none", tr.calls)
	}
}
