package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/vinayak-88/LoviNova/internal/db"
	"github.com/vinayak-88/LoviNova/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type MessageRepository interface {
	// Insert appends a message and returns it with its assigned id.
	Insert(ctx context.Context, msg *model.Message) (*model.Message, error)
	// ListByConversation returns the full history, oldest first.
	ListByConversation(ctx context.Context, conversationID primitive.ObjectID) ([]model.Message, error)
	// LastSentBy returns the sender's most recent message in the
	// conversation, or nil, nil when they have not sent any.
	LastSentBy(ctx context.Context, conversationID primitive.ObjectID, senderID string) (*model.Message, error)
	// MarkConversationRead flips every unread message not sent by readerID to
	// read. Idempotent: with nothing unread it matches zero documents.
	MarkConversationRead(ctx context.Context, conversationID primitive.ObjectID, readerID string) (int64, error)
}

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

func NewMessageRepository(mongoRepo *db.Repository[model.Message], logger *zap.Logger) (MessageRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
	defer cancel()

	err := mongoRepo.EnsureIndexes(ctx,
		mongo.IndexModel{
			Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure message indexes: %w", err)
	}

	return &messageRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}, nil
}

func (m *messageRepository) Insert(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if msg == nil {
		return nil, ErrInvalidMessage
	}
	if msg.ConversationID.IsZero() {
		return nil, ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
		}

		result, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			saved := *msg
			if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
				saved.ID = oid
			}

			m.logger.Info("message inserted",
				zap.String("message_id", saved.ID.Hex()),
				zap.String("conversation_id", msg.ConversationID.Hex()),
				zap.Int("attempt", attempt+1),
			)
			return &saved, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			break
		}

		m.logger.Warn("insert attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to insert message after all retries",
		zap.Error(lastErr),
		zap.String("conversation_id", msg.ConversationID.Hex()),
	)
	if isRetryableError(lastErr) {
		return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, lastErr)
	}
	return nil, fmt.Errorf("insert message failed: %w", lastErr)
}

func (m *messageRepository) ListByConversation(ctx context.Context, conversationID primitive.ObjectID) ([]model.Message, error) {
	if conversationID.IsZero() {
		return nil, ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	// created_at is stored at millisecond resolution, so two fast sends can
	// share a timestamp; _id is generation-ordered and breaks the tie.
	filter := db.NewFilter().Eq("conversation_id", conversationID).Build()
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	messages, err := m.mongoRepo.FindAll(ctx, filter, opts)
	if err != nil {
		return nil, m.handleReadError(err, conversationID.Hex())
	}

	m.logger.Debug("messages retrieved",
		zap.String("conversation_id", conversationID.Hex()),
		zap.Int("count", len(messages)),
	)
	return messages, nil
}

func (m *messageRepository) LastSentBy(ctx context.Context, conversationID primitive.ObjectID, senderID string) (*model.Message, error) {
	if conversationID.IsZero() || senderID == "" {
		return nil, ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("conversation_id", conversationID).
		Eq("sender_id", senderID).
		Build()
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	msg, err := m.mongoRepo.FindOne(ctx, filter, opts)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, m.handleReadError(err, conversationID.Hex())
	}

	return msg, nil
}

func (m *messageRepository) MarkConversationRead(ctx context.Context, conversationID primitive.ObjectID, readerID string) (int64, error) {
	if conversationID.IsZero() || readerID == "" {
		return 0, ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	// The read=false filter is part of the update, so each matched document
	// flips atomically; a message inserted mid-sweep is simply left for the
	// next sweep.
	filter := db.NewFilter().
		Eq("conversation_id", conversationID).
		Ne("sender_id", readerID).
		Eq("read", false).
		Build()

	result, err := m.mongoRepo.UpdateMany(ctx, filter, bson.M{"read": true})
	if err != nil {
		m.logger.Error("failed to mark messages read",
			zap.String("conversation_id", conversationID.Hex()),
			zap.String("reader_id", readerID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("mark messages read failed: %w", err)
	}

	m.logger.Debug("messages marked read",
		zap.String("conversation_id", conversationID.Hex()),
		zap.Int64("modified", result.ModifiedCount),
	)
	return result.ModifiedCount, nil
}

func (m *messageRepository) handleReadError(err error, conversationID string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		m.logger.Error("read timeout", zap.String("conversation_id", conversationID))
		return ErrOperationTimeout
	}

	if errors.Is(err, context.Canceled) {
		m.logger.Debug("read cancelled", zap.String("conversation_id", conversationID))
		return err
	}

	m.logger.Error("read failed", zap.Error(err), zap.String("conversation_id", conversationID))
	return fmt.Errorf("read messages failed: %w", err)
}
