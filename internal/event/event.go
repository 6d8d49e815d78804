package event

import (
	"encoding/json"

	"github.com/vinayak-88/LoviNova/internal/model"
)

const (
	// client → server
	EventAnnounce = "announce"

	// server → client
	EventMessageDelivered = "message_delivered"
	EventReadReceipt      = "read_receipt"
)

// Envelope is the wire frame for every realtime event.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type AnnouncePayload struct {
	UserID string `json:"userId"`
}

type MessageDeliveredPayload struct {
	SenderID   string        `json:"senderId"`
	ReceiverID string        `json:"receiverId"`
	Message    model.Message `json:"message"`
}

type ReadReceiptPayload struct {
	ConversationID string `json:"conversationId"`
}

// NewEnvelope marshals payload into a ready-to-send envelope.
func NewEnvelope(eventName string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: eventName, Payload: raw}, nil
}
