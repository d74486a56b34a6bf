package usecase

import (
	"context"
	"time"

	"coupon-marketplace/internal/domain/model"
	"coupon-marketplace/internal/domain/ports/repository"
	"coupon-marketplace/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

const (
	recentPurchasesLimit   = 10
	recentSubmissionsLimit = 5
)

type StatsUseCase interface {
	Revenue(ctx context.Context, actor model.Actor) (*model.RevenueReport, error)
	Dashboard(ctx context.Context, actor model.Actor) (*model.Dashboard, error)
}

type statsUC struct {
	coupons   repository.CouponRepository
	purchases repository.PurchaseRepository

	log *zerolog.Logger
	now func() time.Time
}

func NewStatsUseCase(coupons repository.CouponRepository, purchases repository.PurchaseRepository, logger *zerolog.Logger) *statsUC {
	l := logger.With().Str("component", "StatsUC").Logger()
	return &statsUC{
		coupons:   coupons,
		purchases: purchases,
		log:       &l,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *statsUC) Revenue(ctx context.Context, actor model.Actor) (*model.RevenueReport, error) {
	defer logging.TraceDuration(s.log, "StatsUC.Revenue")()
	if err := model.Authorize(actor, nil, model.RelationAdmin, "Admin access required"); err != nil {
		return nil, err
	}
	completed, err := s.purchases.ListCompleted(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	return model.BuildRevenueReport(completed, s.now(), recentPurchasesLimit), nil
}

func (s *statsUC) Dashboard(ctx context.Context, actor model.Actor) (*model.Dashboard, error) {
	defer logging.TraceDuration(s.log, "StatsUC.Dashboard")()
	if err := model.Authorize(actor, nil, model.RelationAdmin, "Admin access required"); err != nil {
		return nil, err
	}
	counts, err := s.coupons.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	// every status shows up, even with no coupons in it
	for _, st := range []model.CouponStatus{
		model.CouponStatusPending, model.CouponStatusApproved, model.CouponStatusRejected, model.CouponStatusSold,
	} {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	revenue, err := s.purchases.SumPlatformFees(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	recent, err := s.coupons.List(ctx, repository.NoTX, repository.CouponFilter{
		Status: model.CouponStatusPending,
		Limit:  recentSubmissionsLimit,
	})
	if err != nil {
		return nil, err
	}
	return &model.Dashboard{Counts: counts, TotalRevenue: revenue, RecentSubmissions: recent}, nil
}
