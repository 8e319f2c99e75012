package audit

import (
	"context"
	"log/slog"
	"time"
)

// Event types emitted by the friend graph and messaging services.
const (
	EventFriendRequestSent     = "friend.request.sent"
	EventFriendRequestAccepted = "friend.request.accepted"
	EventFriendRequestRejected = "friend.request.rejected"
	EventMessageSent           = "message.sent"
)

// Envelope is the audit record published per state-changing operation.
type Envelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	RequestID     string `json:"request_id"`
	ActorID       string `json:"actor_id"`
	SubjectID     string `json:"subject_id,omitempty"`
	ChatID        string `json:"chat_id,omitempty"`
}

// Emitter publishes audit envelopes. Fire-and-forget: failures are logged
// and counted, never surfaced to the request that caused them.
type Emitter struct {
	publisher   Publisher
	service     string
	environment string
	logger      *slog.Logger
}

func NewEmitter(publisher Publisher, service, environment string, logger *slog.Logger) *Emitter {
	return &Emitter{
		publisher:   publisher,
		service:     service,
		environment: environment,
		logger:      logger,
	}
}

// Emit publishes one audit event under its event type as routing key.
func (e *Emitter) Emit(ctx context.Context, eventType, requestID, actorID, subjectID, chatID string) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := Envelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		ActorID:       actorID,
		SubjectID:     subjectID,
		ChatID:        chatID,
	}

	if err := e.publisher.Publish(ctx, eventType, envelope); err != nil {
		e.logger.Warn("audit publish failed", "event_type", eventType, "error", err)
	}
}
