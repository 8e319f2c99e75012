package realtime

import (
	"context"
	"log/slog"

	"realtime-chat/internal/observability"
)

// Broker publishes a named event with a JSON payload to a named channel.
// Delivery is fire-and-forget: no acknowledgment, ordering guarantee, or
// replay. A subscriber that is disconnected when an event fires never sees
// it and reconciles on the next full page load.
type Broker interface {
	Trigger(ctx context.Context, channel, event string, payload any) error
}

// Fanout triggers every configured sink and reports the first error. The
// in-process hub is always a sink; the hosted broker client is added when
// credentials are configured.
type Fanout struct {
	sinks  []Broker
	logger *slog.Logger
}

func NewFanout(logger *slog.Logger, sinks ...Broker) *Fanout {
	return &Fanout{sinks: sinks, logger: logger}
}

func (f *Fanout) Trigger(ctx context.Context, channel, event string, payload any) error {
	var firstErr error
	for _, sink := range f.sinks {
		if err := sink.Trigger(ctx, channel, event, payload); err != nil {
			f.logger.Error("realtime trigger failed", "channel", channel, "event", event, "error", err)
			observability.IncBrokerTrigger(event, "error")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		observability.IncBrokerTrigger(event, "ok")
	}
	return firstErr
}
