// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

// Notifier delivers short human-readable alerts (moderation queue, sales) to operators.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}
