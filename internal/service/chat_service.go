package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vinayak-88/LoviNova/internal/model"
	"github.com/vinayak-88/LoviNova/internal/repo"
	"github.com/vinayak-88/LoviNova/pkg/errors"

	"go.uber.org/zap"
)

// Notifier is the realtime push side of the service. Pushes are fire and
// forget and happen only after the corresponding state change is durable.
type Notifier interface {
	MessageDelivered(senderID, receiverID string, msg *model.Message)
	ReadReceipt(conversationID, targetUserID string)
}

// ConversationSummary is one entry of a user's conversation list.
type ConversationSummary struct {
	ID            string          `json:"id"`
	OtherUser     *model.UserView `json:"otherUser"`
	LastMessage   *string         `json:"lastMessage"`
	LastMessageAt *time.Time      `json:"lastMessageAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	IsUnread      bool            `json:"isUnread"`
}

// ConversationView is the result of opening a conversation.
type ConversationView struct {
	Messages          []model.Message `json:"messages"`
	AllMyMessagesRead bool            `json:"allMyMessagesRead"`
}

type ChatService interface {
	ListConversations(ctx context.Context, callerID string) ([]ConversationSummary, error)
	OpenConversation(ctx context.Context, conversationID, callerID string) (*ConversationView, error)
	SendMessage(ctx context.Context, callerID, peerID, text string) (*model.Message, error)
	MarkRead(ctx context.Context, conversationID, callerID string) error
}

type chatService struct {
	conversations repo.ConversationRepository
	messages      repo.MessageRepository
	connections   repo.ConnectionRepository
	users         repo.UserRepository
	notifier      Notifier
	logger        *zap.Logger
	now           func() time.Time
}

func NewChatService(
	conversations repo.ConversationRepository,
	messages repo.MessageRepository,
	connections repo.ConnectionRepository,
	users repo.UserRepository,
	notifier Notifier,
	logger *zap.Logger,
) ChatService {
	return &chatService{
		conversations: conversations,
		messages:      messages,
		connections:   connections,
		users:         users,
		notifier:      notifier,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *chatService) ListConversations(ctx context.Context, callerID string) ([]ConversationSummary, error) {
	if callerID == "" {
		return nil, errors.ErrUnauthenticated
	}

	conversations, err := s.conversations.ListByParticipant(ctx, callerID)
	if err != nil {
		s.logger.Error("failed to list conversations", zap.String("caller_id", callerID), zap.Error(err))
		return nil, errors.ErrConversationLoadFailed(err)
	}

	otherIDs := make([]string, 0, len(conversations))
	for i := range conversations {
		if other := conversations[i].OtherParticipant(callerID); other != "" {
			otherIDs = append(otherIDs, other)
		}
	}

	views, err := s.users.ViewsByIDs(ctx, otherIDs)
	if err != nil {
		s.logger.Error("failed to load participant views", zap.Error(err))
		return nil, errors.ErrConversationLoadFailed(err)
	}

	// Repository already sorts by updated_at descending.
	summaries := make([]ConversationSummary, 0, len(conversations))
	for i := range conversations {
		convo := &conversations[i]

		var otherUser *model.UserView
		if view, ok := views[convo.OtherParticipant(callerID)]; ok {
			v := view
			otherUser = &v
		}

		summaries = append(summaries, ConversationSummary{
			ID:            convo.ID.Hex(),
			OtherUser:     otherUser,
			LastMessage:   convo.LastMessage,
			LastMessageAt: convo.LastMessageAt,
			UpdatedAt:     convo.UpdatedAt,
			IsUnread:      convo.UnreadFor(callerID),
		})
	}

	return summaries, nil
}

func (s *chatService) OpenConversation(ctx context.Context, conversationID, callerID string) (*ConversationView, error) {
	if callerID == "" {
		return nil, errors.ErrUnauthenticated
	}

	convo, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if err == repo.ErrInvalidID {
			return nil, errors.ErrInvalidConversation
		}
		s.logger.Error("failed to fetch conversation", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, errors.ErrConversationLoadFailed(err)
	}
	if convo == nil {
		return nil, errors.ErrConversationNotFound
	}
	if !convo.HasParticipant(callerID) {
		return nil, errors.ErrNotParticipant
	}

	messages, err := s.messages.ListByConversation(ctx, convo.ID)
	if err != nil {
		s.logger.Error("failed to load messages", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, errors.ErrConversationLoadFailed(err)
	}

	if err := s.conversations.MarkOpened(ctx, convo.ID, callerID, s.now()); err != nil {
		s.logger.Error("failed to mark conversation opened", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, errors.ErrConversationLoadFailed(err)
	}

	allRead, err := s.allMessagesRead(ctx, convo, callerID)
	if err != nil {
		return nil, errors.ErrConversationLoadFailed(err)
	}

	if messages == nil {
		messages = []model.Message{}
	}
	return &ConversationView{
		Messages:          messages,
		AllMyMessagesRead: allRead,
	}, nil
}

// allMessagesRead reports whether the peer has opened the conversation since
// the caller's most recent send. Only the latest sent message is compared;
// this is a per-fetch read model, not a per-message flag on the caller's own
// messages.
func (s *chatService) allMessagesRead(ctx context.Context, convo *model.Conversation, callerID string) (bool, error) {
	lastSent, err := s.messages.LastSentBy(ctx, convo.ID, callerID)
	if err != nil {
		s.logger.Error("failed to load last sent message", zap.String("conversation_id", convo.ID.Hex()), zap.Error(err))
		return false, err
	}
	if lastSent == nil {
		return false, nil
	}

	peerOpened, ok := convo.LastOpened[convo.OtherParticipant(callerID)]
	if !ok {
		return false, nil
	}
	return !lastSent.CreatedAt.After(peerOpened), nil
}

func (s *chatService) SendMessage(ctx context.Context, callerID, peerID, text string) (*model.Message, error) {
	if callerID == "" {
		return nil, errors.ErrUnauthenticated
	}
	if peerID == "" {
		return nil, errors.InvalidArg("peer id is required")
	}
	if peerID == callerID {
		return nil, errors.ErrSelfMessage
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.ErrMessageEmpty
	}
	if utf8.RuneCountInString(text) > model.MaxMessageRunes {
		return nil, errors.ErrMessageTooLong
	}

	convo, err := s.conversations.FindByParticipants(ctx, callerID, peerID)
	if err != nil {
		s.logger.Error("failed to locate conversation", zap.Error(err))
		return nil, errors.ErrSendFailed(err)
	}

	if convo == nil {
		accepted, err := s.connections.IsAccepted(ctx, callerID, peerID)
		if err != nil {
			s.logger.Error("failed to check connection", zap.Error(err))
			return nil, errors.ErrSendFailed(err)
		}
		if !accepted {
			return nil, errors.ErrNoConnection
		}

		convo, err = s.conversations.FindOrCreate(ctx, callerID, peerID)
		if err != nil {
			s.logger.Error("failed to create conversation", zap.Error(err))
			return nil, errors.ErrSendFailed(err)
		}
	}

	msg := &model.Message{
		ConversationID: convo.ID,
		SenderID:       callerID,
		ReceiverID:     peerID,
		Text:           text,
		Read:           false,
		CreatedAt:      s.now(),
	}

	saved, err := s.messages.Insert(ctx, msg)
	if err != nil {
		s.logger.Error("failed to persist message", zap.String("conversation_id", convo.ID.Hex()), zap.Error(err))
		return nil, errors.ErrSendFailed(err)
	}

	if err := s.conversations.RecordMessage(ctx, convo.ID, saved.Text, saved.CreatedAt); err != nil {
		s.logger.Error("failed to update conversation preview", zap.String("conversation_id", convo.ID.Hex()), zap.Error(err))
		return nil, errors.ErrSendFailed(err)
	}

	// Push only after the durable commit. Absent presence entries are fine;
	// the peer catches up on the next open.
	s.notifier.MessageDelivered(callerID, peerID, saved)

	return saved, nil
}

func (s *chatService) MarkRead(ctx context.Context, conversationID, callerID string) error {
	if callerID == "" {
		return errors.ErrUnauthenticated
	}

	convo, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if err == repo.ErrInvalidID {
			return errors.ErrInvalidConversation
		}
		s.logger.Error("failed to fetch conversation", zap.String("conversation_id", conversationID), zap.Error(err))
		return errors.ErrConversationLoadFailed(err)
	}
	if convo == nil {
		// Raced deletion or a stale client; nothing to do.
		s.logger.Debug("mark read on missing conversation", zap.String("conversation_id", conversationID))
		return nil
	}
	if !convo.HasParticipant(callerID) {
		return errors.ErrNotParticipant
	}

	if _, err := s.messages.MarkConversationRead(ctx, convo.ID, callerID); err != nil {
		s.logger.Error("failed to mark messages read", zap.String("conversation_id", conversationID), zap.Error(err))
		return errors.ErrConversationLoadFailed(err)
	}

	// The receipt goes to the original sender, not the reader.
	if other := convo.OtherParticipant(callerID); other != "" {
		s.notifier.ReadReceipt(conversationID, other)
	}

	return nil
}
