//go:build !integration

package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"coupon-marketplace/internal/domain/model"
	"coupon-marketplace/internal/domain/ports/repository"
)

func TestScheduler(t *testing.T) {
	l := zerolog.New(io.Discard)

	t.Run("runs immediately and then on every tick", func(t *testing.T) {
		var runs int32
		s := NewScheduler("count", 10*time.Millisecond, func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		}, &l)

		s.Start(context.Background())
		time.Sleep(55 * time.Millisecond)
		s.Stop()

		if n := atomic.LoadInt32(&runs); n < 3 {
			t.Fatalf("expected at least 3 runs, got %d", n)
		}
	})

	t.Run("a failing job does not stop the loop", func(t *testing.T) {
		var runs int32
		s := NewScheduler("failing", 5*time.Millisecond, func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			return errors.New("boom")
		}, &l)

		s.Start(context.Background())
		time.Sleep(30 * time.Millisecond)
		s.Stop()
		s.Stop()

		if atomic.LoadInt32(&runs) < 2 {
			t.Fatal("expected the job to keep running after an error")
		}
	})
}

type countingRepo struct {
	repository.CouponRepository
	pending int
}

func (r *countingRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.CouponStatus]int, error) {
	return map[model.CouponStatus]int{model.CouponStatusPending: r.pending}, nil
}

type recordingNotifier struct{ texts []string }

func (n *recordingNotifier) Notify(ctx context.Context, text string) error {
	n.texts = append(n.texts, text)
	return nil
}

func TestModerationReminderJob(t *testing.T) {
	ctx := context.Background()

	t.Run("stays quiet with an empty queue", func(t *testing.T) {
		n := &recordingNotifier{}
		if err := ModerationReminderJob(&countingRepo{}, n)(ctx); err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if len(n.texts) != 0 {
			t.Fatalf("expected no notification, got %v", n.texts)
		}
	})

	t.Run("reports the pending count", func(t *testing.T) {
		n := &recordingNotifier{}
		_ = ModerationReminderJob(&countingRepo{pending: 3}, n)(ctx)
		if len(n.texts) != 1 || n.texts[0] != "3 coupon(s) awaiting review" {
			t.Fatalf("unexpected notification %v", n.texts)
		}
	})
}
