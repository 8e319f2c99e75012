package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-chat/internal/audit"
	"realtime-chat/internal/auth"
	"realtime-chat/internal/models"
	"realtime-chat/internal/realtime"
	"realtime-chat/internal/repositories"
)

// FriendHandler manages the friend graph endpoints.
type FriendHandler struct {
	users   repositories.UserRepository
	friends repositories.FriendRepository
	broker  realtime.Broker
	emitter *audit.Emitter
	logger  *slog.Logger
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(users repositories.UserRepository, friends repositories.FriendRepository, broker realtime.Broker, emitter *audit.Emitter, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{
		users:   users,
		friends: friends,
		broker:  broker,
		emitter: emitter,
		logger:  logger,
	}
}

// AddFriend sends a friend request to the user behind an email address.
func (h *FriendHandler) AddFriend(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request payload"})
		return
	}

	session, _ := auth.SessionFromContext(c)
	ctx := c.Request.Context()

	idToAdd, err := h.users.GetUserIDByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "this person does not exist"})
			return
		}
		h.logger.Error("email lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if idToAdd == session.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "you cannot add yourself as a friend"})
		return
	}

	alreadyAdded, err := h.friends.HasIncomingRequest(ctx, idToAdd, session.UserID)
	if err != nil {
		h.logger.Error("pending request check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if alreadyAdded {
		c.JSON(http.StatusConflict, gin.H{"error": "already sent a request to this user"})
		return
	}

	alreadyFriends, err := h.friends.AreFriends(ctx, session.UserID, idToAdd)
	if err != nil {
		h.logger.Error("friendship check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if alreadyFriends {
		c.JSON(http.StatusConflict, gin.H{"error": "already friends with this user"})
		return
	}

	// The realtime event fires before the set mutation lands; a client that
	// receives it while the write fails reconciles on the next page load.
	_ = h.broker.Trigger(ctx,
		models.ChannelName(repositories.IncomingRequestsKey(idToAdd)),
		"incoming_friend_requests",
		models.FriendRequest{SenderID: session.UserID, SenderEmail: session.Email},
	)

	if err := h.friends.AddIncomingRequest(ctx, idToAdd, session.UserID); err != nil {
		h.logger.Error("friend request write failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.emitter.Emit(ctx, audit.EventFriendRequestSent, requestIDFromContext(c), session.UserID, idToAdd, "")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// AcceptFriend converts a pending request into a mirrored friendship.
func (h *FriendHandler) AcceptFriend(c *gin.Context) {
	var req struct {
		ID string `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request payload"})
		return
	}

	session, _ := auth.SessionFromContext(c)
	ctx := c.Request.Context()

	alreadyFriends, err := h.friends.AreFriends(ctx, session.UserID, req.ID)
	if err != nil {
		h.logger.Error("friendship check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if alreadyFriends {
		c.JSON(http.StatusConflict, gin.H{"error": "already friends"})
		return
	}

	hasRequest, err := h.friends.HasIncomingRequest(ctx, session.UserID, req.ID)
	if err != nil {
		h.logger.Error("pending request check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if !hasRequest {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no pending friend request"})
		return
	}

	caller, err := h.users.GetUser(ctx, session.UserID)
	if err != nil {
		h.logger.Error("caller record lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	sender, err := h.users.GetUser(ctx, req.ID)
	if err != nil {
		h.logger.Error("sender record lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// One logical unit: both publishes, both set adds and the request
	// removal. No rollback on partial failure; sadd idempotence plus the
	// next reload repair the visible state.
	_ = h.broker.Trigger(ctx, models.ChannelName(repositories.FriendsKey(sender.ID)), "new_friend", caller)
	_ = h.broker.Trigger(ctx, models.ChannelName(repositories.FriendsKey(caller.ID)), "new_friend", sender)

	if err := h.friends.AddFriendship(ctx, session.UserID, req.ID); err != nil {
		h.logger.Error("friendship write failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if err := h.friends.RemoveIncomingRequest(ctx, session.UserID, req.ID); err != nil {
		h.logger.Error("request removal failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.emitter.Emit(ctx, audit.EventFriendRequestAccepted, requestIDFromContext(c), session.UserID, req.ID, "")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RejectFriend drops a pending request. Removing a non-member is a no-op, so
// rejecting an absent request still succeeds.
func (h *FriendHandler) RejectFriend(c *gin.Context) {
	var req struct {
		ID string `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request payload"})
		return
	}

	session, _ := auth.SessionFromContext(c)
	ctx := c.Request.Context()

	if err := h.friends.RemoveIncomingRequest(ctx, session.UserID, req.ID); err != nil {
		h.logger.Error("request removal failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.emitter.Emit(ctx, audit.EventFriendRequestRejected, requestIDFromContext(c), session.UserID, req.ID, "")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListFriends resolves the caller's friend set into full user records.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	session, _ := auth.SessionFromContext(c)
	ctx := c.Request.Context()

	friendIDs, err := h.friends.ListFriendIDs(ctx, session.UserID)
	if err != nil {
		h.logger.Error("friend list fetch failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	friends, err := h.users.GetUsers(ctx, friendIDs)
	if err != nil {
		h.logger.Error("friend record fetch failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// ListRequests returns the pending incoming requests as sender id/email pairs.
func (h *FriendHandler) ListRequests(c *gin.Context) {
	session, _ := auth.SessionFromContext(c)
	ctx := c.Request.Context()

	senderIDs, err := h.friends.ListIncomingRequestIDs(ctx, session.UserID)
	if err != nil {
		h.logger.Error("request list fetch failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	requests := make([]models.FriendRequest, 0, len(senderIDs))
	for _, senderID := range senderIDs {
		sender, err := h.users.GetUser(ctx, senderID)
		if err != nil {
			h.logger.Error("request sender lookup failed", "sender", senderID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		requests = append(requests, models.FriendRequest{SenderID: sender.ID, SenderEmail: sender.Email})
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}
