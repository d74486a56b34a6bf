package scheduler

import (
	"context"
	"fmt"

	"coupon-marketplace/internal/domain/model"
	"coupon-marketplace/internal/domain/ports/adapter"
	"coupon-marketplace/internal/domain/ports/repository"
	"coupon-marketplace/internal/infra/metrics"
)

// PoolStats reads connection counts; pgxpool's Stat fits via a small closure in main.
type PoolStats func() (total, idle, inUse int32)

// PoolStatsJob exports database pool gauges.
func PoolStatsJob(stats PoolStats) Job {
	return func(ctx context.Context) error {
		total, idle, inUse := stats()
		metrics.SetDBPoolStats(total, idle, inUse)
		return nil
	}
}

// ModerationReminderJob pings operators while coupons wait for review.
func ModerationReminderJob(coupons repository.CouponRepository, notifier adapter.Notifier) Job {
	return func(ctx context.Context) error {
		counts, err := coupons.CountByStatus(ctx, repository.NoTX)
		if err != nil {
			return fmt.Errorf("count coupons: %w", err)
		}
		pending := counts[model.CouponStatusPending]
		if pending == 0 {
			return nil
		}
		return notifier.Notify(ctx, fmt.Sprintf("%d coupon(s) awaiting review", pending))
	}
}
