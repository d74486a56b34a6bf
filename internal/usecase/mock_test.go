//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"coupon-marketplace/internal/domain"
	"coupon-marketplace/internal/domain/model"
	"coupon-marketplace/internal/domain/ports/adapter"
	"coupon-marketplace/internal/domain/ports/repository"
	"coupon-marketplace/internal/usecase"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func strPtr(s string) *string { return &s }
func i64Ptr(v int64) *int64   { return &v }

var (
	seller = model.Actor{UserID: "seller-1", Role: model.RoleUser}
	buyer  = model.Actor{UserID: "buyer-1", Role: model.RoleUser}
	buyer2 = model.Actor{UserID: "buyer-2", Role: model.RoleUser}
	admin  = model.Actor{UserID: "admin-1", Role: model.RoleAdmin}
)

func validDraft() model.CouponDraft {
	return model.CouponDraft{
		Title:          "Pizza night",
		Description:    "Two large pizzas for the price of one",
		Category:       "Food",
		RedemptionCode: "PIZZA-2FOR1",
		ExpiryDate:     now().Add(30 * 24 * time.Hour),
		Price:          100,
	}
}

// =============================
// Adapters
// =============================

// ---- Mock EventPublisher ----

type MockEvents struct {
	mu     sync.Mutex
	Events []adapter.Event

	PublishFunc func(ctx context.Context, ev adapter.Event) error
}

var _ adapter.EventPublisher = (*MockEvents)(nil)

func (m *MockEvents) Publish(ctx context.Context, ev adapter.Event) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, ev)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return nil
}

func (m *MockEvents) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Events))
	for _, ev := range m.Events {
		out = append(out, ev.Type)
	}
	return out
}

// ---- Mock Notifier ----

type MockNotifier struct {
	mu   sync.Mutex
	Sent []string

	NotifyFunc func(ctx context.Context, text string) error
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Notify(ctx context.Context, text string) error {
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, text)
	return nil
}

// =============================
// Repositories (in-memory)
// =============================

// ---- Mock CouponRepository ----

type MockCouponRepo struct {
	mu   sync.Mutex
	data map[string]*model.Coupon

	CreateFunc   func(ctx context.Context, tx repository.Tx, c *model.Coupon) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Coupon, error)
	MarkSoldFunc func(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error)
}

var _ repository.CouponRepository = (*MockCouponRepo)(nil)

func NewMockCouponRepo() *MockCouponRepo {
	return &MockCouponRepo{data: map[string]*model.Coupon{}}
}

// Put stores a copy of c as-is, bypassing the use cases.
func (r *MockCouponRepo) Put(c *model.Coupon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.data[c.ID] = &cp
}

// stored reports whether the stored copy of id has the given status.
func (r *MockCouponRepo) stored(id string, status model.CouponStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	return ok && c.Status == status
}

func (r *MockCouponRepo) Create(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, c)
	}
	r.Put(c)
	return nil
}

func (r *MockCouponRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Coupon, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[id]
	if !ok {
		return nil, domain.ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MockCouponRepo) List(ctx context.Context, tx repository.Tx, f repository.CouponFilter) ([]*model.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Coupon
	for _, c := range r.data {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.SellerID != "" && c.SellerID != f.SellerID {
			continue
		}
		if f.Category != "" && !strings.Contains(strings.ToLower(c.Category), strings.ToLower(f.Category)) {
			continue
		}
		if f.MinPrice != nil && c.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && c.Price > *f.MaxPrice {
			continue
		}
		if f.ExpiresAfter != nil && !c.ExpiryDate.After(*f.ExpiresAfter) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MockCouponRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.CouponStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[model.CouponStatus]int{}
	for _, c := range r.data {
		out[c.Status]++
	}
	return out, nil
}

func (r *MockCouponRepo) Update(ctx context.Context, tx repository.Tx, c *model.Coupon, expected model.CouponStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.data[c.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}
	cp := *c
	r.data[c.ID] = &cp
	return true, nil
}

func (r *MockCouponRepo) Delete(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.data[id]
	if !ok || cur.Status == model.CouponStatusSold {
		return false, nil
	}
	delete(r.data, id)
	return true, nil
}

// MarkSold is a real compare-and-swap under the repo mutex, like the SQL conditional update.
func (r *MockCouponRepo) MarkSold(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	if r.MarkSoldFunc != nil {
		return r.MarkSoldFunc(ctx, tx, id, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.data[id]
	if !ok || cur.Status != model.CouponStatusApproved {
		return false, nil
	}
	cur.Status = model.CouponStatusSold
	cur.UpdatedAt = at
	return true, nil
}

// ---- Mock PurchaseRepository ----

type MockPurchaseRepo struct {
	mu      sync.Mutex
	data    map[string]*model.Purchase
	coupons *MockCouponRepo // for the joined views

	CreateFunc   func(ctx context.Context, tx repository.Tx, p *model.Purchase) error
	CompleteFunc func(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error)
}

var _ repository.PurchaseRepository = (*MockPurchaseRepo)(nil)

func NewMockPurchaseRepo(coupons *MockCouponRepo) *MockPurchaseRepo {
	return &MockPurchaseRepo{data: map[string]*model.Purchase{}, coupons: coupons}
}

func (r *MockPurchaseRepo) Get(id string) *model.Purchase {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp
	}
	return nil
}

func (r *MockPurchaseRepo) Create(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.coupons.stored(p.CouponID, model.CouponStatusApproved) {
		return domain.ErrCouponNotForSale
	}
	for _, cur := range r.data {
		if cur.CouponID == p.CouponID && cur.BuyerID == p.BuyerID && cur.Status.Active() {
			return domain.ErrDuplicatePurchase
		}
	}
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockPurchaseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Purchase, error) {
	if p := r.Get(id); p != nil {
		return p, nil
	}
	return nil, domain.ErrPurchaseNotFound
}

func (r *MockPurchaseRepo) FindActive(ctx context.Context, tx repository.Tx, couponID, buyerID string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if p.CouponID == couponID && p.BuyerID == buyerID && p.Status.Active() {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

// Accept checks the stored coupon, not whatever FindByIDFunc pretends.
func (r *MockPurchaseRepo) Accept(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PurchaseStatusPending || !r.coupons.stored(p.CouponID, model.CouponStatusApproved) {
		return false, nil
	}
	p.Status = model.PurchaseStatusAccepted
	p.UpdatedAt = at
	return true, nil
}

func (r *MockPurchaseRepo) Complete(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	if r.CompleteFunc != nil {
		return r.CompleteFunc(ctx, tx, id, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PurchaseStatusAccepted {
		return false, nil
	}
	p.Status = model.PurchaseStatusCompleted
	p.RedemptionCodeRevealed = true
	p.PurchasedAt = at
	p.UpdatedAt = at
	return true, nil
}

func (r *MockPurchaseRepo) views(keep func(*model.Purchase) bool) []*model.PurchaseView {
	r.mu.Lock()
	var ps []*model.Purchase
	for _, p := range r.data {
		if keep(p) {
			cp := *p
			ps = append(ps, &cp)
		}
	}
	r.mu.Unlock()
	sort.Slice(ps, func(i, j int) bool { return ps[i].PurchasedAt.After(ps[j].PurchasedAt) })

	out := make([]*model.PurchaseView, 0, len(ps))
	for _, p := range ps {
		v := &model.PurchaseView{Purchase: *p}
		if c, err := r.coupons.FindByID(context.Background(), repository.NoTX, p.CouponID); err == nil {
			v.Coupon = model.CouponSummary{Title: c.Title, Category: c.Category, Price: c.Price, Images: c.Images}
		}
		out = append(out, v)
	}
	return out
}

func (r *MockPurchaseRepo) ListByBuyer(ctx context.Context, tx repository.Tx, buyerID string) ([]*model.PurchaseView, error) {
	return r.views(func(p *model.Purchase) bool { return p.BuyerID == buyerID }), nil
}

func (r *MockPurchaseRepo) ListBySeller(ctx context.Context, tx repository.Tx, sellerID string, status model.PurchaseStatus) ([]*model.PurchaseView, error) {
	return r.views(func(p *model.Purchase) bool {
		return p.SellerID == sellerID && (status == "" || p.Status == status)
	}), nil
}

func (r *MockPurchaseRepo) ListCompleted(ctx context.Context, tx repository.Tx) ([]*model.Purchase, error) {
	vs := r.views(func(p *model.Purchase) bool { return p.Status == model.PurchaseStatusCompleted })
	out := make([]*model.Purchase, 0, len(vs))
	for _, v := range vs {
		p := v.Purchase
		out = append(out, &p)
	}
	return out, nil
}

func (r *MockPurchaseRepo) SumPlatformFees(ctx context.Context, tx repository.Tx) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, p := range r.data {
		if p.Status == model.PurchaseStatusCompleted {
			sum += p.PlatformFee
		}
	}
	return sum, nil
}

// =============================
// Infra helpers for tests
// =============================

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// marketplace bundles every use case over one shared in-memory store.
type marketplace struct {
	coupons   *MockCouponRepo
	purchases *MockPurchaseRepo
	tm        *MockTxManager
	events    *MockEvents
	notifier  *MockNotifier

	couponUC     usecase.CouponUseCase
	purchaseUC   usecase.PurchaseUseCase
	paymentUC    usecase.PaymentUseCase
	moderationUC usecase.ModerationUseCase
	statsUC      usecase.StatsUseCase
}

func newMarketplace() *marketplace {
	m := &marketplace{
		coupons:  NewMockCouponRepo(),
		tm:       NewMockTxManager(),
		events:   &MockEvents{},
		notifier: &MockNotifier{},
	}
	m.purchases = NewMockPurchaseRepo(m.coupons)
	log := newTestLogger()
	m.couponUC = usecase.NewCouponUseCase(m.coupons, m.events, m.notifier, log)
	m.purchaseUC = usecase.NewPurchaseUseCase(m.purchases, m.coupons, model.DefaultPlatformFeePercent, m.events, m.notifier, log)
	m.paymentUC = usecase.NewPaymentUseCase(m.purchases, m.coupons, m.tm, m.events, m.notifier, log)
	m.moderationUC = usecase.NewModerationUseCase(m.coupons, m.events, m.notifier, log)
	m.statsUC = usecase.NewStatsUseCase(m.coupons, m.purchases, log)
	return m
}

// approvedCoupon creates a coupon through the seller flow and approves it as admin.
func (m *marketplace) approvedCoupon(ctx context.Context, t *testing.T, d model.CouponDraft) *model.Coupon {
	t.Helper()
	c, err := m.couponUC.Create(ctx, seller, d)
	if err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	c, err = m.moderationUC.Approve(ctx, admin, c.ID)
	if err != nil {
		t.Fatalf("approve coupon: %v", err)
	}
	return c
}

// acceptedPurchase runs request + accept for buyer on couponID.
func (m *marketplace) acceptedPurchase(ctx context.Context, t *testing.T, b model.Actor, couponID string) *model.Purchase {
	t.Helper()
	p, _, err := m.purchaseUC.Request(ctx, b, couponID)
	if err != nil {
		t.Fatalf("request purchase: %v", err)
	}
	p, _, err = m.purchaseUC.Accept(ctx, seller, p.ID)
	if err != nil {
		t.Fatalf("accept purchase: %v", err)
	}
	return p
}
