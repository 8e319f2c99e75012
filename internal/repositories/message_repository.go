package repositories

import (
	"context"
	"fmt"

	"realtime-chat/internal/kvstore"
	"realtime-chat/internal/models"
)

// MessageRepository persists and loads a chat's ordered message collection.
type MessageRepository interface {
	SaveMessage(ctx context.Context, chatID string, message models.Message) error
	// ListMessages returns the full history newest-first. There is no
	// pagination and no partial recovery: one malformed entry fails the read.
	ListMessages(ctx context.Context, chatID string) ([]models.Message, error)
	// LastMessage returns the most recent message, with ok=false for an
	// empty chat.
	LastMessage(ctx context.Context, chatID string) (models.Message, bool, error)
}

type messageRepo struct {
	store kvstore.Store
}

// NewMessageRepo builds a store-backed MessageRepository.
func NewMessageRepo(store kvstore.Store) MessageRepository {
	return &messageRepo{store: store}
}

func (r *messageRepo) SaveMessage(ctx context.Context, chatID string, message models.Message) error {
	raw, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return r.store.ZAdd(ctx, MessagesKey(chatID), message.Timestamp, string(raw))
}

func (r *messageRepo) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	entries, err := r.store.ZRange(ctx, MessagesKey(chatID), 0, -1)
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(entries))
	for _, entry := range entries {
		var message models.Message
		if err := json.Unmarshal([]byte(entry), &message); err != nil {
			return nil, fmt.Errorf("parse message in chat %s: %w", chatID, err)
		}
		if err := message.Validate(); err != nil {
			return nil, fmt.Errorf("invalid message %s in chat %s: %w", message.ID, chatID, err)
		}
		messages = append(messages, message)
	}

	// The store returns ascending timestamp order; reverse so the newest
	// message comes first and the view renders it at the bottom.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *messageRepo) LastMessage(ctx context.Context, chatID string) (models.Message, bool, error) {
	entries, err := r.store.ZRange(ctx, MessagesKey(chatID), -1, -1)
	if err != nil {
		return models.Message{}, false, err
	}
	if len(entries) == 0 {
		return models.Message{}, false, nil
	}

	var message models.Message
	if err := json.Unmarshal([]byte(entries[0]), &message); err != nil {
		return models.Message{}, false, fmt.Errorf("parse message in chat %s: %w", chatID, err)
	}
	return message, true, nil
}
