package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vinayak-88/LoviNova/internal/model"
	"github.com/vinayak-88/LoviNova/internal/repo"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stand-ins for the mongo-backed repositories. They reproduce the
// store contracts the service relies on: pair uniqueness under concurrent
// creation, monotonic last-opened entries, and the filtered bulk read sweep.

type fakeConversationRepo struct {
	mu     sync.Mutex
	byID   map[string]*model.Conversation
	byPair map[string]*model.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		byID:   make(map[string]*model.Conversation),
		byPair: make(map[string]*model.Conversation),
	}
}

func copyConversation(c *model.Conversation) *model.Conversation {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	cp.LastOpened = make(map[string]time.Time, len(c.LastOpened))
	for k, v := range c.LastOpened {
		cp.LastOpened[k] = v
	}
	return &cp
}

func (f *fakeConversationRepo) FindByID(_ context.Context, conversationID string) (*model.Conversation, error) {
	if _, err := primitive.ObjectIDFromHex(conversationID); err != nil {
		return nil, repo.ErrInvalidID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[conversationID]
	if !ok {
		return nil, nil
	}
	return copyConversation(c), nil
}

func (f *fakeConversationRepo) FindByParticipants(_ context.Context, userA, userB string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byPair[model.PairKey(userA, userB)]
	if !ok {
		return nil, nil
	}
	return copyConversation(c), nil
}

func (f *fakeConversationRepo) FindOrCreate(_ context.Context, userA, userB string) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := model.PairKey(userA, userB)
	if c, ok := f.byPair[key]; ok {
		return copyConversation(c), nil
	}

	pair := model.SortedPair(userA, userB)
	now := time.Now().UTC()
	c := &model.Conversation{
		ID:           primitive.NewObjectID(),
		Participants: pair[:],
		PairKey:      key,
		LastOpened:   map[string]time.Time{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.byID[c.ID.Hex()] = c
	f.byPair[key] = c
	return copyConversation(c), nil
}

func (f *fakeConversationRepo) RecordMessage(_ context.Context, conversationID primitive.ObjectID, preview string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[conversationID.Hex()]
	if !ok {
		return nil
	}
	c.LastMessage = &preview
	t := at
	c.LastMessageAt = &t
	c.UpdatedAt = at
	return nil
}

func (f *fakeConversationRepo) MarkOpened(_ context.Context, conversationID primitive.ObjectID, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[conversationID.Hex()]
	if !ok {
		return nil
	}
	if prev, ok := c.LastOpened[userID]; !ok || at.After(prev) {
		c.LastOpened[userID] = at
	}
	c.UpdatedAt = at
	return nil
}

func (f *fakeConversationRepo) ListByParticipant(_ context.Context, userID string) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.Conversation
	for _, c := range f.byID {
		if c.HasParticipant(userID) {
			result = append(result, *copyConversation(c))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

func (f *fakeConversationRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []model.Message
}

func (f *fakeMessageRepo) Insert(_ context.Context, msg *model.Message) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := *msg
	saved.ID = primitive.NewObjectID()
	f.messages = append(f.messages, saved)
	return &saved, nil
}

func (f *fakeMessageRepo) ListByConversation(_ context.Context, conversationID primitive.ObjectID) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			result = append(result, m)
		}
	}
	// Same tie-break as the store: equal timestamps fall back to id order.
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.Hex() < result[j].ID.Hex()
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (f *fakeMessageRepo) LastSentBy(_ context.Context, conversationID primitive.ObjectID, senderID string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var last *model.Message
	for i := range f.messages {
		m := f.messages[i]
		if m.ConversationID != conversationID || m.SenderID != senderID {
			continue
		}
		if last == nil || m.CreatedAt.After(last.CreatedAt) {
			cp := m
			last = &cp
		}
	}
	return last, nil
}

func (f *fakeMessageRepo) MarkConversationRead(_ context.Context, conversationID primitive.ObjectID, readerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var modified int64
	for i := range f.messages {
		m := &f.messages[i]
		if m.ConversationID == conversationID && m.SenderID != readerID && !m.Read {
			m.Read = true
			modified++
		}
	}
	return modified, nil
}

type fakeConnectionRepo struct {
	mu       sync.Mutex
	accepted map[string]bool
}

func newFakeConnectionRepo() *fakeConnectionRepo {
	return &fakeConnectionRepo{accepted: make(map[string]bool)}
}

func (f *fakeConnectionRepo) accept(userA, userB string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted[model.PairKey(userA, userB)] = true
}

func (f *fakeConnectionRepo) IsAccepted(_ context.Context, userA, userB string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accepted[model.PairKey(userA, userB)], nil
}

type fakeUserRepo struct {
	views map[string]model.UserView
}

func (f *fakeUserRepo) ViewsByIDs(_ context.Context, userIDs []string) (map[string]model.UserView, error) {
	result := make(map[string]model.UserView)
	for _, id := range userIDs {
		if v, ok := f.views[id]; ok {
			result[id] = v
		}
	}
	return result, nil
}

type deliveredPush struct {
	senderID   string
	receiverID string
	message    model.Message
}

type receiptPush struct {
	conversationID string
	targetUserID   string
}

type fakeNotifier struct {
	mu        sync.Mutex
	delivered []deliveredPush
	receipts  []receiptPush
}

func (f *fakeNotifier) MessageDelivered(senderID, receiverID string, msg *model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, deliveredPush{senderID: senderID, receiverID: receiverID, message: *msg})
}

func (f *fakeNotifier) ReadReceipt(conversationID, targetUserID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts = append(f.receipts, receiptPush{conversationID: conversationID, targetUserID: targetUserID})
}

func (f *fakeNotifier) deliveredCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.delivered)
}

func (f *fakeNotifier) lastReceipt() (receiptPush, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.receipts) == 0 {
		return receiptPush{}, false
	}
	return f.receipts[len(f.receipts)-1], true
}
