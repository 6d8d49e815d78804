package handler

import (
	"errors"
	"net/http"

	"github.com/vinayak-88/LoviNova/internal/middleware"
	"github.com/vinayak-88/LoviNova/internal/service"
	apperrors "github.com/vinayak-88/LoviNova/pkg/errors"

	"github.com/gin-gonic/gin"
)

type ChatHandler interface {
	GetConversations(c *gin.Context)
	GetConversation(c *gin.Context)
	PostMessage(c *gin.Context)
	PostRead(c *gin.Context)
}

type chatHandler struct {
	service service.ChatService
}

func NewChatHandler(service service.ChatService) ChatHandler {
	return &chatHandler{
		service: service,
	}
}

func (h *chatHandler) GetConversations(c *gin.Context) {
	callerID := middleware.CallerID(c)

	conversations, err := h.service.ListConversations(c.Request.Context(), callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": conversations,
	})
}

func (h *chatHandler) GetConversation(c *gin.Context) {
	callerID := middleware.CallerID(c)
	conversationID := c.Param("id")

	view, err := h.service.OpenConversation(c.Request.Context(), conversationID, callerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":              view.Messages,
		"allMyMessagesRead": view.AllMyMessagesRead,
	})
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (h *chatHandler) PostMessage(c *gin.Context) {
	callerID := middleware.CallerID(c)
	matchID := c.Param("id")

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.ErrMessageEmpty)
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), callerID, matchID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Message sent successfully",
		"data":    msg,
	})
}

func (h *chatHandler) PostRead(c *gin.Context) {
	callerID := middleware.CallerID(c)
	conversationID := c.Param("id")

	if err := h.service.MarkRead(c.Request.Context(), conversationID, callerID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Messages marked as read",
	})
}

func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    apperrors.CodeInternal,
			"message": "Something went wrong",
		})
		return
	}

	c.JSON(statusFor(appErr.Code), gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeAlreadyExists:
		return http.StatusConflict
	case apperrors.CodePermissionDenied:
		return http.StatusForbidden
	case apperrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case apperrors.CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
