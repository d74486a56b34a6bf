package usecase

import (
	"context"
	"time"

	"coupon-marketplace/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// emitter fans committed state changes out to the event bus and the operator notifier.
// Both are best-effort: failures are logged and never undo the change.
type emitter struct {
	events   adapter.EventPublisher
	notifier adapter.Notifier
	log      *zerolog.Logger
}

func newEmitter(events adapter.EventPublisher, notifier adapter.Notifier, logger *zerolog.Logger) emitter {
	return emitter{events: events, notifier: notifier, log: logger}
}

func (e emitter) emit(ctx context.Context, typ, key string, payload map[string]any) {
	if e.events == nil {
		return
	}
	ev := adapter.Event{Type: typ, Key: key, OccurredAt: time.Now().UTC(), Payload: payload}
	if err := e.events.Publish(ctx, ev); err != nil {
		e.log.Warn().Err(err).Str("event", typ).Str("key", key).Msg("publish event failed")
	}
}

func (e emitter) notify(ctx context.Context, text string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, text); err != nil {
		e.log.Warn().Err(err).Msg("notify failed")
	}
}
