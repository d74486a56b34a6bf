//go:build !integration

package postgres

import (
	"context"
	"time"

	"coupon-marketplace/internal/domain/model"
	"coupon-marketplace/internal/domain/ports/repository"
	red "coupon-marketplace/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerCouponRepo mocks the database repository that the decorator wraps.
type mockInnerCouponRepo struct {
	repository.CouponRepository

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Coupon, error)
	UpdateFunc   func(ctx context.Context, tx repository.Tx, c *model.Coupon, expected model.CouponStatus) (bool, error)
	MarkSoldFunc func(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error)

	findCalls int
}

func (m *mockInnerCouponRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Coupon, error) {
	m.findCalls++
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerCouponRepo) Update(ctx context.Context, tx repository.Tx, c *model.Coupon, expected model.CouponStatus) (bool, error) {
	return m.UpdateFunc(ctx, tx, c, expected)
}
func (m *mockInnerCouponRepo) MarkSold(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	return m.MarkSoldFunc(ctx, tx, id, at)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", red.ErrNil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error                      { return nil }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) { return 0, nil }
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (m *mockRedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	return -1, nil
}
func (m *mockRedisClient) Close() error { return nil }
