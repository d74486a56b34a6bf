package worker

import (
	"context"

	"coupon-marketplace/internal/domain/ports/adapter"
	"coupon-marketplace/internal/infra/logging"
)

// AsyncPublisher hands events to the pool so a slow broker never delays a response.
type AsyncPublisher struct {
	pool  *Pool
	inner adapter.EventPublisher
}

var _ adapter.EventPublisher = (*AsyncPublisher)(nil)

func NewAsyncPublisher(pool *Pool, inner adapter.EventPublisher) *AsyncPublisher {
	return &AsyncPublisher{pool: pool, inner: inner}
}

func (a *AsyncPublisher) Publish(ctx context.Context, ev adapter.Event) error {
	traceID := logging.TraceID(ctx)
	return a.pool.Submit(func(ctx context.Context) error {
		return a.inner.Publish(logging.WithTraceID(ctx, traceID), ev)
	})
}

// AsyncNotifier does the same for operator notifications.
type AsyncNotifier struct {
	pool  *Pool
	inner adapter.Notifier
}

var _ adapter.Notifier = (*AsyncNotifier)(nil)

func NewAsyncNotifier(pool *Pool, inner adapter.Notifier) *AsyncNotifier {
	return &AsyncNotifier{pool: pool, inner: inner}
}

func (a *AsyncNotifier) Notify(ctx context.Context, text string) error {
	return a.pool.Submit(func(ctx context.Context) error {
		return a.inner.Notify(ctx, text)
	})
}
