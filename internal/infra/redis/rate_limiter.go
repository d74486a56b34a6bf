package redis

import (
	"context"
	"fmt"
	"time"
)

const purchaseWindow = time.Minute

// PurchaseLimiter caps purchase requests per buyer with a fixed one-minute window.
// The first request of a window creates the counter and sets its expiry.
type PurchaseLimiter struct {
	client    RedisClient
	perMinute int
}

func NewPurchaseLimiter(client RedisClient, perMinute int) *PurchaseLimiter {
	return &PurchaseLimiter{client: client, perMinute: perMinute}
}

// Allow counts one purchase request by userID. A denied call reports how long the
// current window has left.
func (l *PurchaseLimiter) Allow(ctx context.Context, userID string) (bool, time.Duration, error) {
	key := PurchaseRequestKey(userID)
	count, err := l.client.Incr(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, purchaseWindow); err != nil {
			return false, 0, err
		}
	}
	if count <= int64(l.perMinute) {
		return true, 0, nil
	}

	left, err := l.client.TTL(ctx, key)
	if err != nil {
		return false, purchaseWindow, nil
	}
	if left <= 0 {
		// counter lost its expiry; restart the window instead of blocking the buyer for good
		if err := l.client.Expire(ctx, key, purchaseWindow); err != nil {
			return false, 0, err
		}
		left = purchaseWindow
	}
	return false, left, nil
}

func PurchaseRequestKey(userID string) string {
	return fmt.Sprintf("rate_limit:%s:purchase_request", userID)
}
