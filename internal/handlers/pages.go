package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-chat/internal/auth"
	"realtime-chat/internal/models"
	"realtime-chat/internal/repositories"
)

// PageHandler renders the server-side views. Every page view re-fetches from
// the store; there is no caching layer.
type PageHandler struct {
	users    repositories.UserRepository
	friends  repositories.FriendRepository
	messages repositories.MessageRepository
	logger   *slog.Logger
}

// NewPageHandler builds a PageHandler.
func NewPageHandler(users repositories.UserRepository, friends repositories.FriendRepository, messages repositories.MessageRepository, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		users:    users,
		friends:  friends,
		messages: messages,
		logger:   logger,
	}
}

// chatEntry is one sidebar row: a friend plus the latest message in the
// shared chat, if any.
type chatEntry struct {
	Friend      models.User
	ChatID      string
	LastMessage string
	FromSelf    bool
}

// Home redirects to the login page; authenticated visitors land on the
// dashboard via the login redirect middleware chain.
func (h *PageHandler) Home(c *gin.Context) {
	if _, ok := auth.SessionFromContext(c); ok {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

// Login renders the sign-in page.
func (h *PageHandler) Login(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

// Dashboard renders the friend list and recent chats sidebar.
func (h *PageHandler) Dashboard(c *gin.Context) {
	session, _ := auth.SessionFromContext(c)
	ctx := c.Request.Context()

	friendIDs, err := h.friends.ListFriendIDs(ctx, session.UserID)
	if err != nil {
		h.logger.Error("friend list fetch failed", "error", err)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": "could not load your friends"})
		return
	}

	friends, err := h.users.GetUsers(ctx, friendIDs)
	if err != nil {
		h.logger.Error("friend record fetch failed", "error", err)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": "could not load your friends"})
		return
	}

	entries := make([]chatEntry, 0, len(friends))
	for _, friend := range friends {
		chatID := models.ChatID(session.UserID, friend.ID)
		entry := chatEntry{Friend: friend, ChatID: chatID}
		if last, ok, err := h.messages.LastMessage(ctx, chatID); err == nil && ok {
			entry.LastMessage = last.Text
			entry.FromSelf = last.SenderID == session.UserID
		}
		entries = append(entries, entry)
	}

	requestIDs, err := h.friends.ListIncomingRequestIDs(ctx, session.UserID)
	if err != nil {
		h.logger.Error("request list fetch failed", "error", err)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": "could not load your requests"})
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Session":         session,
		"Chats":           entries,
		"RequestCount":    len(requestIDs),
		"ChatsChannel":    models.ChannelName(repositories.ChatsKey(session.UserID)),
		"FriendsChannel":  models.ChannelName(repositories.FriendsKey(session.UserID)),
		"RequestsChannel": models.ChannelName(repositories.IncomingRequestsKey(session.UserID)),
	})
}

// AddFriendPage renders the add-friend form.
func (h *PageHandler) AddFriendPage(c *gin.Context) {
	session, _ := auth.SessionFromContext(c)
	c.HTML(http.StatusOK, "add.html", gin.H{"Session": session})
}

// RequestsPage renders the pending incoming friend requests.
func (h *PageHandler) RequestsPage(c *gin.Context) {
	session, _ := auth.SessionFromContext(c)
	ctx := c.Request.Context()

	senderIDs, err := h.friends.ListIncomingRequestIDs(ctx, session.UserID)
	if err != nil {
		h.logger.Error("request list fetch failed", "error", err)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": "could not load your requests"})
		return
	}

	requests := make([]models.FriendRequest, 0, len(senderIDs))
	for _, senderID := range senderIDs {
		sender, err := h.users.GetUser(ctx, senderID)
		if err != nil {
			h.logger.Error("request sender lookup failed", "sender", senderID, "error", err)
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Message": "could not load your requests"})
			return
		}
		requests = append(requests, models.FriendRequest{SenderID: sender.ID, SenderEmail: sender.Email})
	}

	c.HTML(http.StatusOK, "requests.html", gin.H{
		"Session":         session,
		"Requests":        requests,
		"RequestsChannel": models.ChannelName(repositories.IncomingRequestsKey(session.UserID)),
	})
}

// ChatPage renders a chat's history and input box. A malformed chat ID, a
// chat the session is not part of, or an unreadable history all behave as
// not-found.
func (h *PageHandler) ChatPage(c *gin.Context) {
	chatID := c.Param("chatId")
	session, _ := auth.SessionFromContext(c)
	ctx := c.Request.Context()

	userA, userB, err := models.ParseChatID(chatID)
	if err != nil || (session.UserID != userA && session.UserID != userB) {
		c.HTML(http.StatusNotFound, "error.html", gin.H{"Message": "chat not found"})
		return
	}

	partnerID := userA
	if session.UserID == userA {
		partnerID = userB
	}

	partner, err := h.users.GetUser(ctx, partnerID)
	if err != nil {
		h.logger.Error("partner record lookup failed", "error", err)
		c.HTML(http.StatusNotFound, "error.html", gin.H{"Message": "chat not found"})
		return
	}

	messages, err := h.messages.ListMessages(ctx, chatID)
	if err != nil {
		h.logger.Error("message history fetch failed", "chat", chatID, "error", err)
		c.HTML(http.StatusNotFound, "error.html", gin.H{"Message": "chat not found"})
		return
	}

	c.HTML(http.StatusOK, "chat.html", gin.H{
		"Session":     session,
		"Partner":     partner,
		"ChatID":      chatID,
		"Messages":    messages,
		"ChatChannel": models.ChannelName(repositories.ChatKey(chatID)),
	})
}
