package ws

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"realtime-chat/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// EventFrame is the JSON frame written to subscribed connections.
type EventFrame struct {
	Channel string              `json:"channel"`
	Event   string              `json:"event"`
	Data    jsoniter.RawMessage `json:"data"`
}

// Hub is the in-process realtime broker: channel-keyed rooms of websocket
// connections. It implements the same Trigger contract as the hosted broker
// so browser sessions served by this process get live events without a
// third-party dependency.
type Hub struct {
	channels map[string]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		channels: make(map[string]map[*websocket.Conn]ConnInfo),
		logger:   logger,
	}
}

// Subscribe registers a connection on a channel.
func (h *Hub) Subscribe(channel string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*websocket.Conn]ConnInfo)
	}
	h.channels[channel][conn] = info
}

// Unsubscribe removes a connection from a channel, dropping the room when it
// empties.
func (h *Hub) Unsubscribe(channel string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.channels[channel]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.channels, channel)
		}
	}
}

// Trigger writes the event to every connection subscribed to the channel.
// Write failures evict the connection; they are never surfaced to the caller
// beyond logging, matching the fire-and-forget broker contract.
func (h *Hub) Trigger(ctx context.Context, channel, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(EventFrame{Channel: channel, Event: event, Data: data})
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.channels[channel]))
	for conn := range h.channels[channel] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			h.logger.Warn("websocket write failed", "channel", channel, "error", err)
			conn.Close()
			h.Unsubscribe(channel, conn)
			observability.IncWSEvent("write_error")
		}
	}
	return nil
}

// SubscriberCount reports how many connections a channel has.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}
