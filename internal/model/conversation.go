package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation represents a two-party chat thread in MongoDB.
// Participants always holds the sorted pair; PairKey carries the same pair as
// a single string backed by a unique index, so at most one conversation can
// exist per unordered pair.
type Conversation struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Participants  []string             `json:"participants" bson:"participants"`
	PairKey       string               `json:"-" bson:"pair_key"`
	LastMessage   *string              `json:"lastMessage" bson:"last_message"`
	LastMessageAt *time.Time           `json:"lastMessageAt" bson:"last_message_at"`
	LastOpened    map[string]time.Time `json:"lastOpened" bson:"last_opened"`
	CreatedAt     time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time            `json:"updatedAt" bson:"updated_at"`
}

// SortedPair returns the two user ids in lexicographic order.
func SortedPair(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// PairKey builds the unique key for an unordered participant pair.
func PairKey(a, b string) string {
	p := SortedPair(a, b)
	return strings.Join(p[:], ":")
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID, or "" when
// userID is not part of the conversation.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// EffectiveLastMessageAt falls back to UpdatedAt for conversations without a
// message preview yet.
func (c *Conversation) EffectiveLastMessageAt() time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.UpdatedAt
}

// UnreadFor reports whether the conversation holds activity userID has not
// seen: no last-opened entry yet, or the latest message postdates it.
func (c *Conversation) UnreadFor(userID string) bool {
	opened, ok := c.LastOpened[userID]
	if !ok {
		return true
	}
	return c.EffectiveLastMessageAt().After(opened)
}
