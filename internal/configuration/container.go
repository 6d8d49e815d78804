package configuration

import (
	"context"
	"fmt"
	"time"

	"github.com/vinayak-88/LoviNova/config"
	"github.com/vinayak-88/LoviNova/internal/db"
	"github.com/vinayak-88/LoviNova/internal/handler"
	"github.com/vinayak-88/LoviNova/internal/hub"
	"github.com/vinayak-88/LoviNova/internal/model"
	"github.com/vinayak-88/LoviNova/internal/presence"
	"github.com/vinayak-88/LoviNova/internal/repo"
	"github.com/vinayak-88/LoviNova/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	ChatHandler handler.ChatHandler
	Hub         *hub.Hub
	Config      config.Config
	Logger      *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
}

func BuildContainer() (*Container, error) {
	v, err := config.LoadConfig("config")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	con, err := db.OpenConnection(cfg.Mongo.Uri, cfg.Mongo.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	conversationStore := db.NewRepository[model.Conversation](con, cfg.Mongo.ConversationsCollection)
	messageStore := db.NewRepository[model.Message](con, cfg.Mongo.MessagesCollection)
	connectionStore := db.NewRepository[model.Connection](con, cfg.Mongo.ConnectionsCollection)
	userStore := db.NewRepository[model.User](con, cfg.Mongo.UsersCollection)

	conversationRepo, err := repo.NewConversationRepository(conversationStore, logger)
	if err != nil {
		return nil, err
	}
	messageRepo, err := repo.NewMessageRepository(messageStore, logger)
	if err != nil {
		return nil, err
	}
	connectionRepo := repo.NewConnectionRepository(connectionStore, logger)
	userRepo := repo.NewUserRepository(userStore, logger)

	registry := presence.NewRegistry()
	chatHub := hub.NewHub(registry, cfg.Server.ClientOrigin, logger)

	chatService := service.NewChatService(conversationRepo, messageRepo, connectionRepo, userRepo, chatHub, logger)
	chatHandler := handler.NewChatHandler(chatService)

	return &Container{
		ChatHandler: chatHandler,
		Hub:         chatHub,
		Config:      *cfg,
		Logger:      logger,
		mongoClient: con,
	}, nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LoggerMode.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
