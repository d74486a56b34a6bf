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
var _ CouponUseCase = (*couponUC)(nil)

// CouponQuery is the public listing filter. Status defaults to approved.
type CouponQuery struct {
	Status   string
	Category string
	MinPrice *int64
	MaxPrice *int64
}

// CouponUseCase covers the seller side of the coupon lifecycle and public browsing.
type CouponUseCase interface {
	Create(ctx context.Context, actor model.Actor, d model.CouponDraft) (*model.Coupon, error)
	List(ctx context.Context, q CouponQuery) ([]*model.Coupon, error)
	Get(ctx context.Context, id string) (*model.Coupon, error)
	Update(ctx context.Context, actor model.Actor, id string, p model.CouponPatch) (*model.Coupon, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
	ListMine(ctx context.Context, actor model.Actor) ([]*model.Coupon, error)
}

type couponUC struct {
	coupons repository.CouponRepository
	out     emitter
	log     *zerolog.Logger
	now     func() time.Time
}

func NewCouponUseCase(coupons repository.CouponRepository, events adapter.EventPublisher, notifier adapter.Notifier, logger *zerolog.Logger) *couponUC {
	l := logger.With().Str("component", "CouponUC").Logger()
	return &couponUC{
		coupons: coupons,
		out:     newEmitter(events, notifier, &l),
		log:     &l,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (u *couponUC) Create(ctx context.Context, actor model.Actor, d model.CouponDraft) (*model.Coupon, error) {
	defer logging.TraceDuration(u.log, "CouponUC.Create")()
	if actor.IsZero() {
		return nil, domain.ErrUnauthenticated
	}

	c, err := model.NewCoupon(actor.UserID, d, u.now())
	if err != nil {
		return nil, err
	}
	if err := u.coupons.Create(ctx, repository.NoTX, c); err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	metrics.IncCouponTransition(string(model.CouponStatusPending))
	u.log.Info().Str("coupon_id", c.ID).Str("seller_id", c.SellerID).Msg("coupon submitted")
	u.out.emit(ctx, adapter.EventCouponSubmitted, c.ID, map[string]any{
		"coupon_id": c.ID, "seller_id": c.SellerID, "price": c.Price, "category": c.Category,
	})
	u.out.notify(ctx, fmt.Sprintf("New coupon awaiting review: %q (%s), price %s", c.Title, c.Category, FormatMoney(c.Price)))
	return c, nil
}

func (u *couponUC) List(ctx context.Context, q CouponQuery) ([]*model.Coupon, error) {
	status := model.CouponStatusApproved
	if strings.TrimSpace(q.Status) != "" {
		st, err := model.ParseCouponStatus(q.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}
	f := repository.CouponFilter{
		Status:   status,
		Category: strings.TrimSpace(q.Category),
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
	}
	// Expired coupons stay approved in storage; hiding them here is the only gate.
	if status == model.CouponStatusApproved {
		now := u.now()
		f.ExpiresAfter = &now
	}
	return u.coupons.List(ctx, repository.NoTX, f)
}

func (u *couponUC) Get(ctx context.Context, id string) (*model.Coupon, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrCouponNotFound
	}
	return u.coupons.FindByID(ctx, repository.NoTX, id)
}

func (u *couponUC) Update(ctx context.Context, actor model.Actor, id string, p model.CouponPatch) (*model.Coupon, error) {
	defer logging.TraceDuration(u.log, "CouponUC.Update")()
	now := u.now()
	if err := model.ValidatePatch(p, now); err != nil {
		return nil, err
	}

	c, err := u.coupons.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if err := model.Authorize(actor, c, model.RelationOwner, "Not authorized to update this coupon"); err != nil {
		return nil, err
	}

	prev := c.Status
	if err := c.Apply(p, now); err != nil {
		return nil, err
	}
	ok, err := u.coupons.Update(ctx, repository.NoTX, c, prev)
	if err != nil {
		return nil, fmt.Errorf("update coupon: %w", err)
	}
	if !ok {
		return nil, domain.Conflict("Coupon was modified concurrently")
	}

	if prev != c.Status {
		metrics.IncCouponTransition(string(c.Status))
		u.log.Info().Str("coupon_id", c.ID).Str("from", string(prev)).Str("to", string(c.Status)).Msg("coupon sent back to review")
	}
	u.out.emit(ctx, adapter.EventCouponUpdated, c.ID, map[string]any{
		"coupon_id": c.ID, "status": string(c.Status), "price": c.Price,
	})
	return c, nil
}

func (u *couponUC) Delete(ctx context.Context, actor model.Actor, id string) error {
	c, err := u.coupons.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return err
	}
	if err := model.Authorize(actor, c, model.RelationOwner, "Not authorized to delete this coupon"); err != nil {
		return err
	}
	if err := c.CanDelete(); err != nil {
		return err
	}
	ok, err := u.coupons.Delete(ctx, repository.NoTX, c.ID)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if !ok {
		// sold (or removed) between the read and the delete
		return domain.Conflict("Cannot delete sold coupon")
	}
	u.log.Info().Str("coupon_id", c.ID).Msg("coupon deleted")
	u.out.emit(ctx, adapter.EventCouponDeleted, c.ID, map[string]any{"coupon_id": c.ID})
	return nil
}

func (u *couponUC) ListMine(ctx context.Context, actor model.Actor) ([]*model.Coupon, error) {
	if actor.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	return u.coupons.List(ctx, repository.NoTX, repository.CouponFilter{SellerID: actor.UserID})
}

// FormatMoney renders minor units as a decimal amount, e.g. 1999 -> "19.99".
func FormatMoney(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
