//go:build !integration

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, RedisClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestRedisClient(t *testing.T) {
	ctx := context.Background()
	_, c := newTestClient(t)

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, err := c.Get(ctx, "k"); err != nil || v != "v" {
		t.Fatalf("expected v, got %q %v", v, err)
	}
	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrNil) {
		t.Fatalf("expected ErrNil, got %v", err)
	}
}

func TestPurchaseLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to the limit inside a window", func(t *testing.T) {
		_, c := newTestClient(t)
		l := NewPurchaseLimiter(c, 3)

		for i := 0; i < 3; i++ {
			ok, _, err := l.Allow(ctx, "buyer-1")
			if err != nil || !ok {
				t.Fatalf("hit %d: expected allowed, got %v %v", i+1, ok, err)
			}
		}
		ok, retry, err := l.Allow(ctx, "buyer-1")
		if err != nil || ok {
			t.Fatalf("4th hit: expected denied, got %v %v", ok, err)
		}
		if retry <= 0 || retry > time.Minute {
			t.Errorf("expected the rest of the window, got %s", retry)
		}
	})

	t.Run("retry-after shrinks as the window runs out", func(t *testing.T) {
		mr, c := newTestClient(t)
		l := NewPurchaseLimiter(c, 1)
		_, _, _ = l.Allow(ctx, "buyer-2")

		mr.FastForward(40 * time.Second)
		ok, retry, _ := l.Allow(ctx, "buyer-2")

		if ok || retry > 20*time.Second {
			t.Fatalf("expected denial with at most 20s left, got %v %s", ok, retry)
		}
	})

	t.Run("a new window starts after expiry", func(t *testing.T) {
		mr, c := newTestClient(t)
		l := NewPurchaseLimiter(c, 1)

		_, _, _ = l.Allow(ctx, "buyer-3")
		if ok, _, _ := l.Allow(ctx, "buyer-3"); ok {
			t.Fatal("expected second hit to be denied")
		}

		mr.FastForward(61 * time.Second)

		if ok, _, err := l.Allow(ctx, "buyer-3"); err != nil || !ok {
			t.Fatalf("expected a fresh window, got %v %v", ok, err)
		}
	})

	t.Run("a counter without expiry gets one again", func(t *testing.T) {
		// --- Arrange ---
		mr, c := newTestClient(t)
		l := NewPurchaseLimiter(c, 1)
		if err := mr.Set(PurchaseRequestKey("buyer-4"), "5"); err != nil {
			t.Fatalf("seed counter: %v", err)
		}

		// --- Act ---
		ok, retry, err := l.Allow(ctx, "buyer-4")

		// --- Assert ---
		if err != nil || ok || retry != time.Minute {
			t.Fatalf("expected denial for a full window, got %v %s %v", ok, retry, err)
		}
		if mr.TTL(PurchaseRequestKey("buyer-4")) <= 0 {
			t.Error("expected the counter to expire again")
		}
	})

	t.Run("keys are per user", func(t *testing.T) {
		_, c := newTestClient(t)
		l := NewPurchaseLimiter(c, 1)
		_, _, _ = l.Allow(ctx, "a")
		if ok, _, _ := l.Allow(ctx, "b"); !ok {
			t.Fatal("another user must not share the window")
		}
	})
}
