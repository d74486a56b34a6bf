package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coupon-marketplace/internal/domain"
	"coupon-marketplace/internal/domain/model"
	"coupon-marketplace/internal/domain/ports/adapter"
	"coupon-marketplace/internal/domain/ports/repository"
	"coupon-marketplace/internal/infra/logging"
	"coupon-marketplace/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

// PurchaseUseCase drives the first two stages of a purchase: request and accept.
// Payment lives in PaymentUseCase because it is the only operation that touches a coupon
// and a purchase at once.
type PurchaseUseCase interface {
	Request(ctx context.Context, actor model.Actor, couponID string) (*model.Purchase, *model.Coupon, error)
	Accept(ctx context.Context, actor model.Actor, purchaseID string) (*model.Purchase, *model.Coupon, error)
	ListAsBuyer(ctx context.Context, actor model.Actor) ([]*model.PurchaseView, error)
	ListAsSeller(ctx context.Context, actor model.Actor) ([]*model.PurchaseView, error)
	ListPending(ctx context.Context, actor model.Actor) ([]*model.PurchaseView, error)
}

type purchaseUC struct {
	purchases  repository.PurchaseRepository
	coupons    repository.CouponRepository
	feePercent int64
	out        emitter
	log        *zerolog.Logger
	now        func() time.Time
}

func NewPurchaseUseCase(
	purchases repository.PurchaseRepository,
	coupons repository.CouponRepository,
	feePercent int64,
	events adapter.EventPublisher,
	notifier adapter.Notifier,
	logger *zerolog.Logger,
) *purchaseUC {
	l := logger.With().Str("component", "PurchaseUC").Logger()
	if feePercent <= 0 || feePercent > 100 {
		feePercent = model.DefaultPlatformFeePercent
	}
	return &purchaseUC{
		purchases:  purchases,
		coupons:    coupons,
		feePercent: feePercent,
		out:        newEmitter(events, notifier, &l),
		log:        &l,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Request creates a pending purchase. The coupon stays approved and visible: several buyers
// may hold requests on it, the first payment wins.
func (u *purchaseUC) Request(ctx context.Context, actor model.Actor, couponID string) (*model.Purchase, *model.Coupon, error) {
	defer logging.TraceDuration(u.log, "PurchaseUC.Request")()
	if actor.IsZero() {
		return nil, nil, domain.ErrUnauthenticated
	}
	couponID = strings.TrimSpace(couponID)
	if couponID == "" {
		return nil, nil, domain.Validation("Coupon ID is required", domain.FieldError{Field: "couponId", Message: "Coupon ID is required"})
	}

	c, err := u.coupons.FindByID(ctx, repository.NoTX, couponID)
	if err != nil {
		return nil, nil, err
	}
	p, err := model.NewPurchase(c, actor.UserID, u.feePercent, u.now())
	if err != nil {
		return nil, nil, err
	}

	existing, err := u.purchases.FindActive(ctx, repository.NoTX, c.ID, actor.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("find active purchase: %w", err)
	}
	if existing != nil {
		return nil, nil, domain.ErrDuplicatePurchase
	}
	// The storage layer enforces the same rule with a unique index, so two concurrent
	// requests cannot both get through.
	if err := u.purchases.Create(ctx, repository.NoTX, p); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("create purchase: %w", err)
	}

	metrics.IncPurchaseTransition(string(model.PurchaseStatusPending))
	u.log.Info().Str("purchase_id", p.ID).Str("coupon_id", c.ID).Str("buyer_id", p.BuyerID).
		Int64("amount", p.AmountPaid).Int64("fee", p.PlatformFee).Msg("purchase requested")
	u.out.emit(ctx, adapter.EventPurchaseRequested, c.ID, map[string]any{
		"purchase_id": p.ID, "coupon_id": c.ID, "buyer_id": p.BuyerID, "seller_id": p.SellerID,
		"amount_paid": p.AmountPaid, "platform_fee": p.PlatformFee, "seller_earnings": p.SellerEarnings,
	})
	return p, c, nil
}

func (u *purchaseUC) Accept(ctx context.Context, actor model.Actor, purchaseID string) (*model.Purchase, *model.Coupon, error) {
	defer logging.TraceDuration(u.log, "PurchaseUC.Accept")()
	p, err := u.purchases.FindByID(ctx, repository.NoTX, purchaseID)
	if err != nil {
		return nil, nil, err
	}
	if err := model.Authorize(actor, p, model.RelationSeller, "Not authorized to accept this purchase"); err != nil {
		return nil, nil, err
	}
	if p.Status != model.PurchaseStatusPending {
		return nil, nil, domain.Conflict("Purchase request is not pending")
	}

	// A pending request can outlive its coupon being rejected, edited or sold.
	c, err := u.coupons.FindByID(ctx, repository.NoTX, p.CouponID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrCouponUnavailable
		}
		return nil, nil, err
	}
	if !c.Purchasable() {
		return nil, nil, domain.ErrCouponUnavailable
	}

	now := u.now()
	if err := p.Accept(now); err != nil {
		return nil, nil, err
	}
	// The coupon read above may be cached; the write re-checks both rows.
	ok, err := u.purchases.Accept(ctx, repository.NoTX, p.ID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("accept purchase: %w", err)
	}
	if !ok {
		cur, err := u.purchases.FindByID(ctx, repository.NoTX, p.ID)
		if err != nil {
			return nil, nil, err
		}
		if cur.Status == model.PurchaseStatusPending {
			return nil, nil, domain.ErrCouponUnavailable
		}
		return nil, nil, domain.Conflict("Purchase request is not pending")
	}

	metrics.IncPurchaseTransition(string(model.PurchaseStatusAccepted))
	u.log.Info().Str("purchase_id", p.ID).Str("coupon_id", c.ID).Msg("purchase accepted")
	u.out.emit(ctx, adapter.EventPurchaseAccepted, c.ID, map[string]any{
		"purchase_id": p.ID, "coupon_id": c.ID, "buyer_id": p.BuyerID, "seller_id": p.SellerID,
	})
	return p, c, nil
}

func (u *purchaseUC) ListAsBuyer(ctx context.Context, actor model.Actor) ([]*model.PurchaseView, error) {
	if actor.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	return u.purchases.ListByBuyer(ctx, repository.NoTX, actor.UserID)
}

func (u *purchaseUC) ListAsSeller(ctx context.Context, actor model.Actor) ([]*model.PurchaseView, error) {
	if actor.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	return u.purchases.ListBySeller(ctx, repository.NoTX, actor.UserID, "")
}

func (u *purchaseUC) ListPending(ctx context.Context, actor model.Actor) ([]*model.PurchaseView, error) {
	if actor.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	return u.purchases.ListBySeller(ctx, repository.NoTX, actor.UserID, model.PurchaseStatusPending)
}
