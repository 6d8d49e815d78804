package hub

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/vinayak-88/LoviNova/internal/event"
	"github.com/vinayak-88/LoviNova/internal/model"
	"github.com/vinayak-88/LoviNova/internal/presence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type recordingConn struct {
	mu     sync.Mutex
	events []event.Envelope
}

func (r *recordingConn) Deliver(ev event.Envelope) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true
}

func (r *recordingConn) received() []event.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Envelope(nil), r.events...)
}

func newTestHub(t *testing.T) (*Hub, *presence.Registry) {
	t.Helper()
	registry := presence.NewRegistry()
	h := NewHub(registry, "http://localhost:5173", zap.NewNop())
	t.Cleanup(h.Stop)
	return h, registry
}

func TestMessageDelivered_PushesToBothPresentParties(t *testing.T) {
	h, registry := newTestHub(t)

	sender := &recordingConn{}
	receiver := &recordingConn{}
	registry.Announce("alice", sender)
	registry.Announce("bob", receiver)

	msg := &model.Message{
		ID:             primitive.NewObjectID(),
		ConversationID: primitive.NewObjectID(),
		SenderID:       "alice",
		ReceiverID:     "bob",
		Text:           "hi",
	}
	h.MessageDelivered("alice", "bob", msg)

	for name, conn := range map[string]*recordingConn{"sender": sender, "receiver": receiver} {
		events := conn.received()
		require.Len(t, events, 1, "%s should get the push", name)
		assert.Equal(t, event.EventMessageDelivered, events[0].Event)

		var payload event.MessageDeliveredPayload
		require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
		assert.Equal(t, "alice", payload.SenderID)
		assert.Equal(t, "bob", payload.ReceiverID)
		assert.Equal(t, "hi", payload.Message.Text)
	}
}

func TestMessageDelivered_SkipsAbsentParties(t *testing.T) {
	h, registry := newTestHub(t)

	receiver := &recordingConn{}
	registry.Announce("bob", receiver)

	msg := &model.Message{SenderID: "alice", ReceiverID: "bob", Text: "hi"}
	h.MessageDelivered("alice", "bob", msg)

	assert.Len(t, receiver.received(), 1)

	// bob drops offline; the next push is silently lost
	registry.Remove(receiver)
	h.MessageDelivered("alice", "bob", msg)
	assert.Len(t, receiver.received(), 1, "no delivery after disconnect")
}

func TestReadReceipt_TargetsOnlyTheGivenUser(t *testing.T) {
	h, registry := newTestHub(t)

	alice := &recordingConn{}
	bob := &recordingConn{}
	registry.Announce("alice", alice)
	registry.Announce("bob", bob)

	conversationID := primitive.NewObjectID().Hex()
	h.ReadReceipt(conversationID, "alice")

	events := alice.received()
	require.Len(t, events, 1)
	assert.Equal(t, event.EventReadReceipt, events[0].Event)

	var payload event.ReadReceiptPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, conversationID, payload.ConversationID)

	assert.Empty(t, bob.received(), "the reader gets nothing")
}

func TestAnnounceEvent_RegistersPresence(t *testing.T) {
	h, registry := newTestHub(t)

	c := &Client{ID: "test-client", hub: h, egress: make(chan event.Envelope, 1)}
	ev, err := event.NewEnvelope(event.EventAnnounce, event.AnnouncePayload{UserID: "alice"})
	require.NoError(t, err)

	h.handleEvent(ev, c)

	got, ok := registry.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, c, got)
	assert.Equal(t, "alice", c.UserID())
}
