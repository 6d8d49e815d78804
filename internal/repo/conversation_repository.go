package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/vinayak-88/LoviNova/internal/db"
	"github.com/vinayak-88/LoviNova/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type ConversationRepository interface {
	// FindByID returns nil, nil when no conversation has this id.
	FindByID(ctx context.Context, conversationID string) (*model.Conversation, error)
	// FindByParticipants returns nil, nil when the pair has no conversation yet.
	FindByParticipants(ctx context.Context, userA, userB string) (*model.Conversation, error)
	// FindOrCreate returns the conversation for the pair, creating it when
	// absent. Safe under concurrent first sends: the pair_key unique index
	// serializes creation and the loser re-reads the surviving document.
	FindOrCreate(ctx context.Context, userA, userB string) (*model.Conversation, error)
	// RecordMessage updates the denormalized preview after a successful send.
	RecordMessage(ctx context.Context, conversationID primitive.ObjectID, preview string, at time.Time) error
	// MarkOpened moves the caller's last-opened entry forward. The entry only
	// ever grows: a concurrent open with an older timestamp cannot regress it.
	MarkOpened(ctx context.Context, conversationID primitive.ObjectID, userID string, at time.Time) error
	// ListByParticipant returns the caller's conversations, most recently
	// updated first.
	ListByParticipant(ctx context.Context, userID string) ([]model.Conversation, error)
}

type conversationRepository struct {
	mongoRepo *db.Repository[model.Conversation]
	logger    *zap.Logger
}

func NewConversationRepository(mongoRepo *db.Repository[model.Conversation], logger *zap.Logger) (ConversationRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
	defer cancel()

	// Uniqueness of the unordered participant pair lives in the database, not
	// in application logic.
	err := mongoRepo.EnsureIndexes(ctx,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		mongo.IndexModel{
			Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure conversation indexes: %w", err)
	}

	return &conversationRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}, nil
}

func (r *conversationRepository) FindByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	if conversationID == "" {
		return nil, ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	if _, err := primitive.ObjectIDFromHex(conversationID); err != nil {
		r.logger.Debug("invalid conversation id format",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return nil, ErrInvalidID
	}

	conversation, err := r.mongoRepo.FindByID(ctx, conversationID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		r.logger.Error("failed to fetch conversation",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}

	return conversation, nil
}

func (r *conversationRepository) FindByParticipants(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	if userA == "" || userB == "" {
		return nil, ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("pair_key", model.PairKey(userA, userB)).Build()

	conversation, err := r.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		r.logger.Error("failed to find conversation by participants", zap.Error(err))
		return nil, fmt.Errorf("failed to find conversation: %w", err)
	}

	return conversation, nil
}

func (r *conversationRepository) FindOrCreate(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	existing, err := r.FindByParticipants(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	pair := model.SortedPair(userA, userB)
	now := time.Now().UTC()
	conversation := model.Conversation{
		Participants: pair[:],
		PairKey:      model.PairKey(userA, userB),
		LastOpened:   map[string]time.Time{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	result, err := r.mongoRepo.Create(ctx, conversation)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the creation race; the other writer's document survives.
			r.logger.Debug("conversation creation raced, re-reading survivor",
				zap.String("pair_key", conversation.PairKey),
			)
			survivor, findErr := r.FindByParticipants(ctx, userA, userB)
			if findErr != nil {
				return nil, findErr
			}
			if survivor == nil {
				return nil, fmt.Errorf("conversation conflict with no survivor: %w", err)
			}
			return survivor, nil
		}
		r.logger.Error("failed to create conversation",
			zap.String("pair_key", conversation.PairKey),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		conversation.ID = oid
	}

	r.logger.Info("conversation created",
		zap.String("conversation_id", conversation.ID.Hex()),
		zap.String("pair_key", conversation.PairKey),
	)

	return &conversation, nil
}

func (r *conversationRepository) RecordMessage(ctx context.Context, conversationID primitive.ObjectID, preview string, at time.Time) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.UpdateByID(ctx, conversationID, bson.M{
		"$set": bson.M{
			"last_message":    preview,
			"last_message_at": at,
			"updated_at":      at,
		},
	})
	if err != nil {
		r.logger.Error("failed to record last message",
			zap.String("conversation_id", conversationID.Hex()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to record last message: %w", err)
	}
	return nil
}

func (r *conversationRepository) MarkOpened(ctx context.Context, conversationID primitive.ObjectID, userID string, at time.Time) error {
	if userID == "" {
		return ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	// $max keeps the entry monotonic at the write site.
	_, err := r.mongoRepo.UpdateByID(ctx, conversationID, bson.M{
		"$max": bson.M{"last_opened." + userID: at},
		"$set": bson.M{"updated_at": at},
	})
	if err != nil {
		r.logger.Error("failed to mark conversation opened",
			zap.String("conversation_id", conversationID.Hex()),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to mark conversation opened: %w", err)
	}
	return nil
}

func (r *conversationRepository) ListByParticipant(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("participants", userID).Build()
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	conversations, err := r.mongoRepo.FindAll(ctx, filter, opts)
	if err != nil {
		r.logger.Error("failed to list conversations",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	r.logger.Debug("conversations retrieved",
		zap.String("user_id", userID),
		zap.Int("count", len(conversations)),
	)
	return conversations, nil
}
