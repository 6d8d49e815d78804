package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxMessageRunes bounds the length of a single message text.
const MaxMessageRunes = 1000

// Message represents a single chat message in MongoDB. Read flips false→true
// exactly once, through the bulk read sweep; nothing else mutates a message.
type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversationId" bson:"conversation_id"`
	SenderID       string             `json:"senderId" bson:"sender_id"`
	ReceiverID     string             `json:"receiverId" bson:"receiver_id"`
	Text           string             `json:"text" bson:"text"`
	Read           bool               `json:"read" bson:"read"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
}
