package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"coupon-marketplace/internal/domain/model"
	"coupon-marketplace/internal/domain/ports/repository"
	"coupon-marketplace/internal/infra/metrics"
	red "coupon-marketplace/internal/infra/redis"
)

var _ repository.CouponRepository = (*couponRepoCacheDecorator)(nil)

// couponRepoCacheDecorator caches single-coupon reads made outside a transaction.
// Listings always hit the database.
type couponRepoCacheDecorator struct {
	inner repository.CouponRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewCouponRepoCacheDecorator(inner repository.CouponRepository, cache red.RedisClient, ttl time.Duration) repository.CouponRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &couponRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func couponKey(id string) string { return fmt.Sprintf("coupon:%s", id) }

func (d *couponRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Coupon, error) {
	if tx != nil {
		// row locks and read-your-writes need the database
		return d.inner.FindByID(ctx, tx, id)
	}
	key := couponKey(id)
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var c model.Coupon
		if json.Unmarshal([]byte(val), &c) == nil {
			metrics.IncCacheRequest("coupon", "hit")
			return &c, nil
		}
	case !errors.Is(err, red.ErrNil):
		metrics.IncCacheRequest("coupon", "error")
	}

	metrics.IncCacheRequest("coupon", "miss")
	c, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(c); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return c, nil
}

func (d *couponRepoCacheDecorator) Create(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	return d.inner.Create(ctx, tx, c)
}

func (d *couponRepoCacheDecorator) List(ctx context.Context, tx repository.Tx, f repository.CouponFilter) ([]*model.Coupon, error) {
	return d.inner.List(ctx, tx, f)
}

func (d *couponRepoCacheDecorator) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.CouponStatus]int, error) {
	return d.inner.CountByStatus(ctx, tx)
}

// For write operations, we must invalidate the cache.
func (d *couponRepoCacheDecorator) Update(ctx context.Context, tx repository.Tx, c *model.Coupon, expected model.CouponStatus) (bool, error) {
	ok, err := d.inner.Update(ctx, tx, c, expected)
	d.invalidateWrite(ctx, tx, c.ID)
	return ok, err
}

func (d *couponRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	ok, err := d.inner.Delete(ctx, tx, id)
	d.invalidateWrite(ctx, tx, id)
	return ok, err
}

func (d *couponRepoCacheDecorator) MarkSold(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	ok, err := d.inner.MarkSold(ctx, tx, id, at)
	d.invalidateWrite(ctx, tx, id)
	return ok, err
}

// invalidateWrite drops the key now and, for a transactional write, once more after
// commit: a read between the write and the commit sees the old row and would re-fill it.
func (d *couponRepoCacheDecorator) invalidateWrite(ctx context.Context, tx repository.Tx, id string) {
	d.invalidate(ctx, id)
	if tx != nil {
		afterCommit(ctx, func(ctx context.Context) { d.invalidate(ctx, id) })
	}
}

func (d *couponRepoCacheDecorator) invalidate(ctx context.Context, id string) {
	if err := d.cache.Del(ctx, couponKey(id)); err != nil {
		metrics.IncCacheRequest("coupon", "error")
	}
}
