package approuters

import (
	"github.com/vinayak-88/LoviNova/internal/configuration"
	"github.com/vinayak-88/LoviNova/internal/middleware"

	"github.com/gin-gonic/gin"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chat := router.Group("/")
	chat.Use(middleware.Auth(container.Config.Auth.JWTSecret, container.Logger))
	{
		// The :id segment is the peer's user id on the message route and the
		// conversation id elsewhere; gin requires one wildcard name per
		// position.
		chat.GET("/chats", container.ChatHandler.GetConversations)
		chat.GET("/chat/:id", container.ChatHandler.GetConversation)
		chat.POST("/chat/:id/message", container.ChatHandler.PostMessage)
		chat.POST("/chat/:id/read", container.ChatHandler.PostRead)
	}
}
