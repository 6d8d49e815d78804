package repo

import (
	"context"
	"fmt"

	"github.com/vinayak-88/LoviNova/internal/db"
	"github.com/vinayak-88/LoviNova/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// ConnectionRepository answers the accepted-connection predicate. The
// connection-request lifecycle itself is owned by the matching service; the
// chat core only reads it.
type ConnectionRepository interface {
	IsAccepted(ctx context.Context, userA, userB string) (bool, error)
}

type connectionRepository struct {
	mongoRepo *db.Repository[model.Connection]
	logger    *zap.Logger
}

func NewConnectionRepository(mongoRepo *db.Repository[model.Connection], logger *zap.Logger) ConnectionRepository {
	return &connectionRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

func (r *connectionRepository) IsAccepted(ctx context.Context, userA, userB string) (bool, error) {
	if userA == "" || userB == "" {
		return false, ErrInvalidID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("status", model.ConnectionAccepted).
		Or(
			bson.M{"sender_id": userA, "receiver_id": userB},
			bson.M{"sender_id": userB, "receiver_id": userA},
		).
		Build()

	accepted, err := r.mongoRepo.Exists(ctx, filter)
	if err != nil {
		r.logger.Error("failed to check connection",
			zap.String("user_a", userA),
			zap.String("user_b", userB),
			zap.Error(err),
		)
		return false, fmt.Errorf("failed to check connection: %w", err)
	}

	return accepted, nil
}
