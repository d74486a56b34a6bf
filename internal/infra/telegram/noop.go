package telegram

import (
	"context"

	"coupon-marketplace/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier logs alerts instead of sending them. Used when no bot token is configured.
type NoopNotifier struct {
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: logger}
}

func (n *NoopNotifier) Notify(ctx context.Context, text string) error {
	n.log.Info().Str("component", "noop-telegram").Str("text", text).Msg("notification")
	return nil
}
