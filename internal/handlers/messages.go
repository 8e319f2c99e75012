package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aidarkhanov/nanoid/v2"
	"github.com/gin-gonic/gin"

	"realtime-chat/internal/audit"
	"realtime-chat/internal/auth"
	"realtime-chat/internal/models"
	"realtime-chat/internal/realtime"
	"realtime-chat/internal/repositories"
)

// MessageHandler manages the messaging endpoints and the chat read path.
type MessageHandler struct {
	users    repositories.UserRepository
	friends  repositories.FriendRepository
	messages repositories.MessageRepository
	broker   realtime.Broker
	emitter  *audit.Emitter
	logger   *slog.Logger
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(users repositories.UserRepository, friends repositories.FriendRepository, messages repositories.MessageRepository, broker realtime.Broker, emitter *audit.Emitter, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		users:    users,
		friends:  friends,
		messages: messages,
		broker:   broker,
		emitter:  emitter,
		logger:   logger,
	}
}

// SendMessage validates, broadcasts and persists one chat message.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req struct {
		ChatID string `json:"chatId" binding:"required"`
		Text   string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request payload"})
		return
	}

	session, _ := auth.SessionFromContext(c)
	ctx := c.Request.Context()

	userA, userB, err := models.ParseChatID(req.ChatID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}
	if session.UserID != userA && session.UserID != userB {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	friendID := userA
	if session.UserID == userA {
		friendID = userB
	}

	isFriend, err := h.friends.AreFriends(ctx, session.UserID, friendID)
	if err != nil {
		h.logger.Error("friendship check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if !isFriend {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sender, err := h.users.GetUser(ctx, session.UserID)
	if err != nil {
		h.logger.Error("sender record lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	id, err := nanoid.New()
	if err != nil {
		h.logger.Error("message id generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	message := models.Message{
		ID:        id,
		SenderID:  session.UserID,
		Text:      req.Text,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := message.Validate(); err != nil {
		h.logger.Error("message validation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// Both realtime events fire before the message is durably persisted; a
	// subscriber can see a message that then fails to persist. Kept as the
	// write path has always behaved: no retry, no rollback.
	_ = h.broker.Trigger(ctx, models.ChannelName(repositories.ChatKey(req.ChatID)), "incoming_message", message)
	_ = h.broker.Trigger(ctx, models.ChannelName(repositories.ChatsKey(friendID)), "new_message", models.MessageNotification{
		Message:    message,
		SenderName: sender.Name,
		SenderImg:  sender.Image,
	})

	if err := h.messages.SaveMessage(ctx, req.ChatID, message); err != nil {
		h.logger.Error("message persist failed", "chat", req.ChatID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.emitter.Emit(ctx, audit.EventMessageSent, requestIDFromContext(c), session.UserID, friendID, req.ChatID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetChatMessages returns the chat history, newest first. Any malformed
// stored entry hides the entire history behind a 404.
func (h *MessageHandler) GetChatMessages(c *gin.Context) {
	chatID := c.Param("chatId")

	userA, userB, err := models.ParseChatID(chatID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	session, _ := auth.SessionFromContext(c)
	if session.UserID != userA && session.UserID != userB {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	messages, err := h.messages.ListMessages(c.Request.Context(), chatID)
	if err != nil {
		h.logger.Error("message history fetch failed", "chat", chatID, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// GetChatPartner resolves the counterpart's user record for a chat.
func (h *MessageHandler) GetChatPartner(c *gin.Context) {
	chatID := c.Param("chatId")

	userA, userB, err := models.ParseChatID(chatID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	session, _ := auth.SessionFromContext(c)
	if session.UserID != userA && session.UserID != userB {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	partnerID := userA
	if session.UserID == userA {
		partnerID = userB
	}

	partner, err := h.users.GetUser(c.Request.Context(), partnerID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat partner not found"})
			return
		}
		h.logger.Error("partner record lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, partner)
}
