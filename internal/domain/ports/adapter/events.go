package adapter

import (
	"context"
	"time"
)

const (
	EventCouponSubmitted   = "coupon.submitted"
	EventCouponUpdated     = "coupon.updated"
	EventCouponDeleted     = "coupon.deleted"
	EventCouponApproved    = "coupon.approved"
	EventCouponRejected    = "coupon.rejected"
	EventPurchaseRequested = "purchase.requested"
	EventPurchaseAccepted  = "purchase.accepted"
	EventPurchaseCompleted = "purchase.completed"
)

// Event is a lifecycle change that already committed.
type Event struct {
	Type       string
	Key        string // aggregate id; keeps one coupon's events ordered on a partition
	OccurredAt time.Time
	Payload    map[string]any
}

// EventPublisher ships lifecycle events to downstream consumers. Delivery is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}
