package repository

import (
	"context"
	"time"

	"coupon-marketplace/internal/domain/model"
)

// CouponFilter narrows a coupon listing. Zero values mean "no constraint".
type CouponFilter struct {
	Status       model.CouponStatus
	Category     string // case-insensitive substring
	MinPrice     *int64
	MaxPrice     *int64
	SellerID     string
	ExpiresAfter *time.Time // only coupons whose expiry is strictly after this instant
	Limit        int
}

// -----------------------------
// Coupons
// -----------------------------

type CouponRepository interface {
	Create(ctx context.Context, tx Tx, c *model.Coupon) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Coupon, error)
	List(ctx context.Context, tx Tx, f CouponFilter) ([]*model.Coupon, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.CouponStatus]int, error)

	// Update persists c only if the stored status still equals expected.
	// It reports false when another writer got there first.
	Update(ctx context.Context, tx Tx, c *model.Coupon, expected model.CouponStatus) (bool, error)
	// Delete removes a coupon unless it was sold. Reports false when nothing was deleted.
	Delete(ctx context.Context, tx Tx, id string) (bool, error)

	// MarkSold is the sale compare-and-swap: approved -> sold, atomically.
	// It reports false when the coupon was not approved at the time of the write.
	MarkSold(ctx context.Context, tx Tx, id string, at time.Time) (bool, error)
}
