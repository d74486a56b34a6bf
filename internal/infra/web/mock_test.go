//go:build !integration

package web

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"coupon-marketplace/internal/config"
	"coupon-marketplace/internal/domain/model"
	"coupon-marketplace/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- use case mocks; unset funcs panic through the embedded nil interface ----

type mockCouponUC struct {
	usecase.CouponUseCase
	CreateFunc func(ctx context.Context, actor model.Actor, d model.CouponDraft) (*model.Coupon, error)
	ListFunc   func(ctx context.Context, q usecase.CouponQuery) ([]*model.Coupon, error)
	GetFunc    func(ctx context.Context, id string) (*model.Coupon, error)
	UpdateFunc func(ctx context.Context, actor model.Actor, id string, p model.CouponPatch) (*model.Coupon, error)
	DeleteFunc func(ctx context.Context, actor model.Actor, id string) error
}

func (m *mockCouponUC) Create(ctx context.Context, actor model.Actor, d model.CouponDraft) (*model.Coupon, error) {
	return m.CreateFunc(ctx, actor, d)
}
func (m *mockCouponUC) List(ctx context.Context, q usecase.CouponQuery) ([]*model.Coupon, error) {
	return m.ListFunc(ctx, q)
}
func (m *mockCouponUC) Get(ctx context.Context, id string) (*model.Coupon, error) {
	return m.GetFunc(ctx, id)
}
func (m *mockCouponUC) Update(ctx context.Context, actor model.Actor, id string, p model.CouponPatch) (*model.Coupon, error) {
	return m.UpdateFunc(ctx, actor, id, p)
}
func (m *mockCouponUC) Delete(ctx context.Context, actor model.Actor, id string) error {
	return m.DeleteFunc(ctx, actor, id)
}

type mockPurchaseUC struct {
	usecase.PurchaseUseCase
	RequestFunc     func(ctx context.Context, actor model.Actor, couponID string) (*model.Purchase, *model.Coupon, error)
	ListAsBuyerFunc func(ctx context.Context, actor model.Actor) ([]*model.PurchaseView, error)
	ListSellerFunc  func(ctx context.Context, actor model.Actor) ([]*model.PurchaseView, error)
}

func (m *mockPurchaseUC) Request(ctx context.Context, actor model.Actor, couponID string) (*model.Purchase, *model.Coupon, error) {
	return m.RequestFunc(ctx, actor, couponID)
}
func (m *mockPurchaseUC) ListAsBuyer(ctx context.Context, actor model.Actor) ([]*model.PurchaseView, error) {
	return m.ListAsBuyerFunc(ctx, actor)
}
func (m *mockPurchaseUC) ListAsSeller(ctx context.Context, actor model.Actor) ([]*model.PurchaseView, error) {
	return m.ListSellerFunc(ctx, actor)
}

type mockPaymentUC struct {
	PayFunc func(ctx context.Context, actor model.Actor, purchaseID string) (*model.Purchase, *model.Coupon, error)
}

func (m *mockPaymentUC) Pay(ctx context.Context, actor model.Actor, purchaseID string) (*model.Purchase, *model.Coupon, error) {
	return m.PayFunc(ctx, actor, purchaseID)
}

type mockModerationUC struct {
	usecase.ModerationUseCase
	ApproveFunc func(ctx context.Context, actor model.Actor, couponID string) (*model.Coupon, error)
}

func (m *mockModerationUC) Approve(ctx context.Context, actor model.Actor, couponID string) (*model.Coupon, error) {
	return m.ApproveFunc(ctx, actor, couponID)
}

type mockStatsUC struct {
	usecase.StatsUseCase
	DashboardFunc func(ctx context.Context, actor model.Actor) (*model.Dashboard, error)
}

func (m *mockStatsUC) Dashboard(ctx context.Context, actor model.Actor) (*model.Dashboard, error) {
	return m.DashboardFunc(ctx, actor)
}

type mockLimiter struct {
	allowed int
	calls   int
	users   []string
}

func (m *mockLimiter) Allow(ctx context.Context, userID string) (bool, time.Duration, error) {
	m.calls++
	m.users = append(m.users, userID)
	if m.calls <= m.allowed {
		return true, 0, nil
	}
	return false, 1500 * time.Millisecond, nil
}

const testSecret = "test-secret"

type testServer struct {
	coupons    *mockCouponUC
	purchases  *mockPurchaseUC
	payments   *mockPaymentUC
	moderation *mockModerationUC
	stats      *mockStatsUC
	limiter    *mockLimiter
	auth       *AuthManager
}

func newTestServer() *testServer {
	return &testServer{
		coupons:    &mockCouponUC{},
		purchases:  &mockPurchaseUC{},
		payments:   &mockPaymentUC{},
		moderation: &mockModerationUC{},
		stats:      &mockStatsUC{},
		limiter:    &mockLimiter{allowed: 1000},
		auth:       NewAuthManager(testSecret, time.Hour),
	}
}

func (ts *testServer) server() *Server {
	return NewServer(Deps{
		Coupons:    ts.coupons,
		Purchases:  ts.purchases,
		Payments:   ts.payments,
		Moderation: ts.moderation,
		Stats:      ts.stats,
		Auth:       ts.auth,
		Limiter:    ts.limiter,
	}, config.HTTPConfig{RequestTimeout: time.Second}, newTestLogger())
}

func (ts *testServer) token(userID string, role model.Role) string {
	tok, err := ts.auth.IssueToken(userID, role)
	if err != nil {
		panic(err)
	}
	return "Bearer " + tok
}
