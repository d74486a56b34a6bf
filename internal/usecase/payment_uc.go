// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"coupon-marketplace/internal/domain"
	"coupon-marketplace/internal/domain/model"
	"coupon-marketplace/internal/domain/ports/adapter"
	"coupon-marketplace/internal/domain/ports/repository"
	"coupon-marketplace/internal/infra/logging"
	"coupon-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// PaymentUseCase is the marketplace's settlement boundary: paying for an accepted purchase
// completes it and consumes the coupon in one transaction. Payment itself is simulated.
type PaymentUseCase interface {
	Pay(ctx context.Context, actor model.Actor, purchaseID string) (*model.Purchase, *model.Coupon, error)
}

type paymentUC struct {
	purchases repository.PurchaseRepository
	coupons   repository.CouponRepository
	tm        repository.TransactionManager
	out       emitter
	log       *zerolog.Logger
	now       func() time.Time
}

func NewPaymentUseCase(
	purchases repository.PurchaseRepository,
	coupons repository.CouponRepository,
	tm repository.TransactionManager,
	events adapter.EventPublisher,
	notifier adapter.Notifier,
	logger *zerolog.Logger,
) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{
		purchases: purchases,
		coupons:   coupons,
		tm:        tm,
		out:       newEmitter(events, notifier, &l),
		log:       &l,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Pay completes an accepted purchase. The coupon goes approved -> sold through a
// compare-and-swap inside the transaction; when several accepted purchases of one coupon
// are paid at once exactly one wins and the rest get domain.ErrCouponUnavailable.
func (u *paymentUC) Pay(ctx context.Context, actor model.Actor, purchaseID string) (*model.Purchase, *model.Coupon, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Pay")()

	var (
		purchase *model.Purchase
		coupon   *model.Coupon
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.purchases.FindByID(ctx, tx, purchaseID)
		if err != nil {
			return err
		}
		if err := model.Authorize(actor, p, model.RelationBuyer, "Not authorized to pay for this purchase"); err != nil {
			return err
		}
		if err := p.CheckPayable(); err != nil {
			return err
		}

		now := u.now()
		sold, err := u.coupons.MarkSold(ctx, tx, p.CouponID, now)
		if err != nil {
			return fmt.Errorf("mark coupon sold: %w", err)
		}
		if !sold {
			return domain.ErrCouponUnavailable
		}

		completed, err := u.purchases.Complete(ctx, tx, p.ID, now)
		if err != nil {
			return fmt.Errorf("complete purchase: %w", err)
		}
		if !completed {
			// paid by a concurrent request of the same buyer; roll the coupon back
			return domain.Conflict("Purchase request must be accepted by seller first")
		}
		if err := p.Complete(now); err != nil {
			return err
		}

		c, err := u.coupons.FindByID(ctx, tx, p.CouponID)
		if err != nil {
			return err
		}
		purchase, coupon = p, c
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrCouponUnavailable) {
			metrics.IncSaleConflict()
			u.log.Info().Str("purchase_id", purchaseID).Msg("payment lost the race for the coupon")
		}
		return nil, nil, err
	}

	metrics.IncPurchaseTransition(string(model.PurchaseStatusCompleted))
	metrics.IncCouponTransition(string(model.CouponStatusSold))
	metrics.AddPlatformRevenue(purchase.PlatformFee)
	u.log.Info().Str("purchase_id", purchase.ID).Str("coupon_id", coupon.ID).
		Int64("amount", purchase.AmountPaid).Int64("fee", purchase.PlatformFee).Msg("purchase completed")
	u.out.emit(ctx, adapter.EventPurchaseCompleted, coupon.ID, map[string]any{
		"purchase_id": purchase.ID, "coupon_id": coupon.ID, "buyer_id": purchase.BuyerID, "seller_id": purchase.SellerID,
		"amount_paid": purchase.AmountPaid, "platform_fee": purchase.PlatformFee, "seller_earnings": purchase.SellerEarnings,
	})
	u.out.notify(ctx, fmt.Sprintf("Sold: %q for %s (platform fee %s)", coupon.Title, FormatMoney(purchase.AmountPaid), FormatMoney(purchase.PlatformFee)))
	return purchase, coupon, nil
}
