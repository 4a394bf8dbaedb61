package api

import (
	"coachlink/fitness-platform/internal/service"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatHandler exposes direct messaging and the notification inbox.
type ChatHandler struct {
	chatService         service.ChatService
	notificationService service.NotificationService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService, notificationService service.NotificationService) *ChatHandler {
	return &ChatHandler{
		chatService:         chatService,
		notificationService: notificationService,
	}
}

// --- Request/Response Structs ---

type SendMessageRequest struct {
	RecipientID string `json:"recipientId" binding:"required"`
	Body        string `json:"body" binding:"required"`
}

// --- Handler Methods ---

// SendMessage godoc
// @Summary Send a direct message
// @Description Messaging is restricted to associated trainer/client pairs;
// @Description admins may message anyone.
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param message body SendMessageRequest true "Recipient and body"
// @Success 201 {object} domain.ChatMessage
// @Failure 400 {object} gin.H "Empty body"
// @Failure 403 {object} gin.H "Users are not associated"
// @Failure 404 {object} gin.H "Recipient not found"
// @Router /chat/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	senderID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	recipientID, err := primitive.ObjectIDFromHex(req.RecipientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid recipient ID format.")
		return
	}

	msg, err := h.chatService.Send(c.Request.Context(), senderID, recipientID, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrRecipientNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrChatForbidden):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to send message.")
		}
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// GetConversation godoc
// @Summary List the conversation with another user
// @Description Messages are returned oldest first. Opening the conversation
// @Description marks the caller's incoming messages read.
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param userId path string true "Other user's ID"
// @Success 200 {array} domain.ChatMessage
// @Failure 403 {object} gin.H "Users are not associated"
// @Failure 404 {object} gin.H "User not found"
// @Router /chat/conversations/{userId} [get]
func (h *ChatHandler) GetConversation(c *gin.Context) {
	callerID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	otherID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid user ID format.")
		return
	}

	messages, err := h.chatService.Conversation(c.Request.Context(), callerID, otherID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipientNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrChatForbidden):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve conversation.")
		}
		return
	}

	c.JSON(http.StatusOK, messages)
}

// GetNotifications godoc
// @Summary List the user's notifications, newest first
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Notification
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /notifications [get]
func (h *ChatHandler) GetNotifications(c *gin.Context) {
	userID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	notifications, err := h.notificationService.ListMine(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve notifications.")
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead godoc
// @Summary Mark one of the user's notifications as read
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204 "Notification marked read"
// @Failure 404 {object} gin.H "Notification not found"
// @Router /notifications/{id}/read [post]
func (h *ChatHandler) MarkNotificationRead(c *gin.Context) {
	userID, ok := objectIDFromToken(c)
	if !ok {
		return
	}

	notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid notification ID format.")
		return
	}

	err = h.notificationService.MarkRead(c.Request.Context(), userID, notificationID)
	if err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to mark notification read.")
		}
		return
	}

	c.Status(http.StatusNoContent)
}
