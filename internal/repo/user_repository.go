package repo

import (
	"context"
	"fmt"

	"github.com/vinayak-88/LoviNova/internal/db"
	"github.com/vinayak-88/LoviNova/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type UserRepository interface {
	// ViewsByIDs loads the safe projections for the given user ids, keyed by
	// id. Unknown ids are simply absent from the result.
	ViewsByIDs(ctx context.Context, userIDs []string) (map[string]model.UserView, error)
}

type userRepository struct {
	mongoRepo *db.Repository[model.User]
	logger    *zap.Logger
}

func NewUserRepository(mongoRepo *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

func (r *userRepository) ViewsByIDs(ctx context.Context, userIDs []string) (map[string]model.UserView, error) {
	views := make(map[string]model.UserView, len(userIDs))
	if len(userIDs) == 0 {
		return views, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(userIDs))
	for _, id := range userIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			r.logger.Debug("skipping malformed user id", zap.String("user_id", id))
			continue
		}
		objectIDs = append(objectIDs, oid)
	}

	filter := db.NewFilter().In("_id", objectIDs).Build()

	users, err := r.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		r.logger.Error("failed to load users", zap.Error(err))
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	for i := range users {
		views[users[i].ID.Hex()] = users[i].View()
	}
	return views, nil
}
