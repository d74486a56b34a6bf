package usecase

import (
	"context"
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
var _ ModerationUseCase = (*moderationUC)(nil)

// ModerationUseCase is the admin review queue.
type ModerationUseCase interface {
	ListSubmissions(ctx context.Context, actor model.Actor, status string) ([]*model.Coupon, error)
	Approve(ctx context.Context, actor model.Actor, couponID string) (*model.Coupon, error)
	Reject(ctx context.Context, actor model.Actor, couponID string) (*model.Coupon, error)
}

type moderationUC struct {
	coupons repository.CouponRepository
	out     emitter
	log     *zerolog.Logger
	now     func() time.Time
}

func NewModerationUseCase(coupons repository.CouponRepository, events adapter.EventPublisher, notifier adapter.Notifier, logger *zerolog.Logger) *moderationUC {
	l := logger.With().Str("component", "ModerationUC").Logger()
	return &moderationUC{
		coupons: coupons,
		out:     newEmitter(events, notifier, &l),
		log:     &l,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (u *moderationUC) ListSubmissions(ctx context.Context, actor model.Actor, status string) ([]*model.Coupon, error) {
	if err := model.Authorize(actor, nil, model.RelationAdmin, "Admin access required"); err != nil {
		return nil, err
	}
	st := model.CouponStatusPending
	if strings.TrimSpace(status) != "" {
		parsed, err := model.ParseCouponStatus(status)
		if err != nil {
			return nil, err
		}
		st = parsed
	}
	return u.coupons.List(ctx, repository.NoTX, repository.CouponFilter{Status: st})
}

func (u *moderationUC) Approve(ctx context.Context, actor model.Actor, couponID string) (*model.Coupon, error) {
	defer logging.TraceDuration(u.log, "ModerationUC.Approve")()
	return u.moderate(ctx, actor, couponID, model.CouponStatusApproved)
}

func (u *moderationUC) Reject(ctx context.Context, actor model.Actor, couponID string) (*model.Coupon, error) {
	defer logging.TraceDuration(u.log, "ModerationUC.Reject")()
	return u.moderate(ctx, actor, couponID, model.CouponStatusRejected)
}

func (u *moderationUC) moderate(ctx context.Context, actor model.Actor, couponID string, to model.CouponStatus) (*model.Coupon, error) {
	if err := model.Authorize(actor, nil, model.RelationAdmin, "Admin access required"); err != nil {
		return nil, err
	}
	c, err := u.coupons.FindByID(ctx, repository.NoTX, couponID)
	if err != nil {
		return nil, err
	}
	if err := c.Moderate(to, u.now()); err != nil {
		return nil, err
	}
	ok, err := u.coupons.Update(ctx, repository.NoTX, c, model.CouponStatusPending)
	if err != nil {
		return nil, fmt.Errorf("moderate coupon: %w", err)
	}
	if !ok {
		return nil, domain.Conflict("Coupon is not pending approval")
	}

	metrics.IncCouponTransition(string(to))
	u.log.Info().Str("coupon_id", c.ID).Str("status", string(to)).Str("admin_id", actor.UserID).Msg("coupon moderated")
	typ := adapter.EventCouponApproved
	if to == model.CouponStatusRejected {
		typ = adapter.EventCouponRejected
	}
	u.out.emit(ctx, typ, c.ID, map[string]any{"coupon_id": c.ID, "seller_id": c.SellerID, "admin_id": actor.UserID})
	return c, nil
}
