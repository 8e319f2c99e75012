package ws

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"realtime-chat/internal/auth"
	"realtime-chat/internal/models"
	"realtime-chat/internal/observability"
	"realtime-chat/internal/repositories"
)

// Handler upgrades browser sessions and subscribes them to their channels.
type Handler struct {
	hub *Hub
}

// NewHandler constructs a websocket Handler.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers it on every requested channel
// the session is authorized for. The session is resolved by the auth
// middleware before this handler runs.
func (h *Handler) Handle(c *gin.Context) {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	ctx, span := otel.Tracer("realtime-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	channels := strings.Split(c.Query("channels"), ",")
	authorized := make([]string, 0, len(channels))
	for _, channel := range channels {
		channel = strings.TrimSpace(channel)
		if channel == "" {
			continue
		}
		if !ChannelAuthorized(session.UserID, channel) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for channel"})
			return
		}
		authorized = append(authorized, channel)
	}
	if len(authorized) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no channels requested"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      session.UserID,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	for _, channel := range authorized {
		h.hub.Subscribe(channel, conn, info)
	}

	observability.IncWSActive()
	observability.IncWSEvent("connect")

	// Read loop exists only to detect the close; clients never send frames.
	go func() {
		defer func() {
			for _, channel := range authorized {
				h.hub.Unsubscribe(channel, conn)
			}
			observability.DecWSActive()
			observability.IncWSEvent("disconnect")
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("read_error")
				}
				return
			}
		}
	}()
}

// ChannelAuthorized reports whether a user may subscribe to a channel.
// Personal channels belong to their owner only; a chat channel requires the
// user to be one of the two participants encoded in the chat ID.
func ChannelAuthorized(userID, channel string) bool {
	switch channel {
	case models.ChannelName(repositories.IncomingRequestsKey(userID)),
		models.ChannelName(repositories.FriendsKey(userID)),
		models.ChannelName(repositories.ChatsKey(userID)):
		return true
	}

	chatID, found := strings.CutPrefix(channel, models.ChannelName(repositories.ChatKey("")))
	if !found {
		return false
	}
	a, b, err := models.ParseChatID(chatID)
	if err != nil {
		return false
	}
	return userID == a || userID == b
}
