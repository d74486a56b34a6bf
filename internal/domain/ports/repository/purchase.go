package repository

import (
	"context"
	"time"

	"coupon-marketplace/internal/domain/model"
)

// -----------------------------
// Purchases
// -----------------------------

type PurchaseRepository interface {
	// Create inserts a pending purchase while its coupon is approved. It returns
	// domain.ErrCouponNotForSale otherwise, and a conflict error when the buyer already
	// holds an active purchase of the same coupon.
	Create(ctx context.Context, tx Tx, p *model.Purchase) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Purchase, error)
	FindActive(ctx context.Context, tx Tx, couponID, buyerID string) (*model.Purchase, error)

	// Accept is pending -> accepted, only while the purchase is pending and its coupon approved.
	Accept(ctx context.Context, tx Tx, id string, at time.Time) (bool, error)
	// Complete is accepted -> completed with the redemption code revealed.
	Complete(ctx context.Context, tx Tx, id string, at time.Time) (bool, error)

	ListByBuyer(ctx context.Context, tx Tx, buyerID string) ([]*model.PurchaseView, error)
	ListBySeller(ctx context.Context, tx Tx, sellerID string, status model.PurchaseStatus) ([]*model.PurchaseView, error)
	ListCompleted(ctx context.Context, tx Tx) ([]*model.Purchase, error)
	SumPlatformFees(ctx context.Context, tx Tx) (int64, error)
}
