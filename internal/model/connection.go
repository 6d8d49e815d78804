package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Connection request status values
const (
	ConnectionIgnored    = "ignored"
	ConnectionInterested = "interested"
	ConnectionAccepted   = "accepted"
	ConnectionRejected   = "rejected"
)

// Connection represents a connection request between two users. Messaging is
// only allowed once a request between the pair reaches accepted, in either
// direction.
type Connection struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SenderID   string             `json:"senderId" bson:"sender_id"`
	ReceiverID string             `json:"receiverId" bson:"receiver_id"`
	Status     string             `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updatedAt" bson:"updated_at"`
}
