//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"coupon-marketplace/internal/domain"
	"coupon-marketplace/internal/domain/model"
)

func TestModerationUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("admin approves a pending coupon", func(t *testing.T) {
		m := newMarketplace()
		c, _ := m.couponUC.Create(ctx, seller, validDraft())

		got, err := m.moderationUC.Approve(ctx, admin, c.ID)
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if got.Status != model.CouponStatusApproved {
			t.Errorf("expected approved, got %s", got.Status)
		}
	})

	t.Run("moderating twice is a conflict", func(t *testing.T) {
		m := newMarketplace()
		c := m.approvedCoupon(ctx, t, validDraft())
		_, err := m.moderationUC.Reject(ctx, admin, c.ID)
		if got := domain.Message(err, ""); got != "Coupon is not pending approval" {
			t.Fatalf("unexpected error %v", err)
		}
	})

	t.Run("regular users cannot moderate", func(t *testing.T) {
		m := newMarketplace()
		c, _ := m.couponUC.Create(ctx, seller, validDraft())
		if _, err := m.moderationUC.Approve(ctx, seller, c.ID); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("submissions default to the pending queue", func(t *testing.T) {
		m := newMarketplace()
		m.approvedCoupon(ctx, t, validDraft())
		pending, _ := m.couponUC.Create(ctx, seller, validDraft())

		got, err := m.moderationUC.ListSubmissions(ctx, admin, "")
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if len(got) != 1 || got[0].ID != pending.ID {
			t.Fatalf("expected the pending coupon only, got %d", len(got))
		}
	})
}

func TestStatsUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("Revenue should aggregate completed purchases only", func(t *testing.T) {
		// --- Arrange ---
		m := newMarketplace()
		c1 := m.approvedCoupon(ctx, t, validDraft())
		d := validDraft()
		d.Price = 250
		c2 := m.approvedCoupon(ctx, t, d)
		p1 := m.acceptedPurchase(ctx, t, buyer, c1.ID)
		m.acceptedPurchase(ctx, t, buyer, c2.ID) // never paid
		if _, _, err := m.paymentUC.Pay(ctx, buyer, p1.ID); err != nil {
			t.Fatal(err)
		}

		// --- Act ---
		r, err := m.statsUC.Revenue(ctx, admin)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got %v", err)
		}
		if r.TotalRevenue != 20 || r.TotalAmount != 100 || r.TotalSales != 1 {
			t.Errorf("unexpected totals %d/%d/%d", r.TotalRevenue, r.TotalAmount, r.TotalSales)
		}
		if len(r.MonthlyRevenue) != 12 {
			t.Errorf("expected 12 months, got %d", len(r.MonthlyRevenue))
		}
		if got := r.MonthlyRevenue[time.Now().UTC().Format("2006-01")]; got != 20 {
			t.Errorf("expected 20 for the current month, got %d", got)
		}
		if len(r.RecentPurchases) != 1 {
			t.Errorf("expected 1 recent purchase, got %d", len(r.RecentPurchases))
		}
	})

	t.Run("Dashboard should count every status", func(t *testing.T) {
		m := newMarketplace()
		m.approvedCoupon(ctx, t, validDraft())
		if _, err := m.couponUC.Create(ctx, seller, validDraft()); err != nil {
			t.Fatal(err)
		}

		dash, err := m.statsUC.Dashboard(ctx, admin)
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if len(dash.Counts) != 4 {
			t.Errorf("expected all 4 statuses, got %v", dash.Counts)
		}
		if dash.Counts[model.CouponStatusApproved] != 1 || dash.Counts[model.CouponStatusPending] != 1 || dash.Counts[model.CouponStatusSold] != 0 {
			t.Errorf("unexpected counts %v", dash.Counts)
		}
		if len(dash.RecentSubmissions) != 1 {
			t.Errorf("expected 1 recent submission, got %d", len(dash.RecentSubmissions))
		}
	})

	t.Run("reports are admin only", func(t *testing.T) {
		m := newMarketplace()
		if _, err := m.statsUC.Revenue(ctx, buyer); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}
