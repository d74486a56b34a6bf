package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coupon-marketplace/internal/config"
	"coupon-marketplace/internal/domain/ports/adapter"
	"coupon-marketplace/internal/domain/ports/repository"
	pg "coupon-marketplace/internal/infra/db/postgres"
	"coupon-marketplace/internal/infra/events"
	"coupon-marketplace/internal/infra/logging"
	"coupon-marketplace/internal/infra/metrics"
	red "coupon-marketplace/internal/infra/redis"
	"coupon-marketplace/internal/infra/scheduler"
	"coupon-marketplace/internal/infra/telegram"
	"coupon-marketplace/internal/infra/web"
	"coupon-marketplace/internal/infra/worker"
	"coupon-marketplace/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	var couponRepo repository.CouponRepository = pg.NewPostgresCouponRepo(pool)
	purchaseRepo := pg.NewPostgresPurchaseRepo(pool)
	txManager := pg.NewTxManager(pool)

	var limiter web.Limiter
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		couponRepo = pg.NewCouponRepoCacheDecorator(couponRepo, redisClient, cfg.Redis.TTL)
		if n := cfg.RateLimit.PurchaseRequestsPerMinute; n > 0 {
			limiter = red.NewPurchaseLimiter(redisClient, n)
		}
	} else {
		logger.Warn().Msg("redis.url not set; coupon cache and rate limiting disabled")
	}

	// ---- async side effects ----
	var publisher adapter.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		defer kp.Close()
		publisher = kp
	} else {
		publisher = events.NewNoopPublisher(logger)
	}

	var (
		notifier adapter.Notifier
		bot      *telegram.Bot
	)

	eventPool := worker.NewPool("events", cfg.Notify.Workers, cfg.Notify.QueueSize, logger)
	notifyPool := worker.NewPool("notify", cfg.Notify.Workers, cfg.Notify.QueueSize, logger)
	eventPool.Start(ctx)
	notifyPool.Start(ctx)
	defer eventPool.Stop()
	defer notifyPool.Stop()
	asyncEvents := worker.NewAsyncPublisher(eventPool, publisher)

	// ---- use cases ----
	statsUC := usecase.NewStatsUseCase(couponRepo, purchaseRepo, logger)

	if cfg.Notify.TelegramToken != "" {
		bot, err = telegram.NewBot(cfg.Notify, statsUC, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		notifier = bot
	} else {
		notifier = telegram.NewNoopNotifier(logger)
	}
	asyncNotifier := worker.NewAsyncNotifier(notifyPool, notifier)

	couponUC := usecase.NewCouponUseCase(couponRepo, asyncEvents, asyncNotifier, logger)
	purchaseUC := usecase.NewPurchaseUseCase(purchaseRepo, couponRepo, cfg.Marketplace.PlatformFeePercent, asyncEvents, asyncNotifier, logger)
	paymentUC := usecase.NewPaymentUseCase(purchaseRepo, couponRepo, txManager, asyncEvents, asyncNotifier, logger)
	moderationUC := usecase.NewModerationUseCase(couponRepo, asyncEvents, asyncNotifier, logger)

	if bot != nil {
		go func() {
			if err := bot.StartPolling(ctx); err != nil {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
	}

	// ---- periodic jobs ----
	poolStats := scheduler.NewScheduler("db_pool_stats", 15*time.Second, scheduler.PoolStatsJob(func() (int32, int32, int32) {
		s := pool.Stat()
		return s.TotalConns(), s.IdleConns(), s.AcquiredConns()
	}), logger)
	reminder := scheduler.NewScheduler("moderation_reminder", time.Hour, scheduler.ModerationReminderJob(couponRepo, asyncNotifier), logger)
	poolStats.Start(ctx)
	reminder.Start(ctx)
	defer poolStats.Stop()
	defer reminder.Stop()

	// ---- HTTP ----
	srv := web.NewServer(web.Deps{
		Coupons:    couponUC,
		Purchases:  purchaseUC,
		Payments:   paymentUC,
		Moderation: moderationUC,
		Stats:      statsUC,
		Auth:       web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Limiter:    limiter,
		Health:     func(ctx context.Context) error { return pool.Ping(ctx) },
	}, cfg.HTTP, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if bot != nil {
		bot.StopPolling()
	}
}
