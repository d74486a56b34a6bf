package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"coupon-marketplace/internal/config"
	"coupon-marketplace/internal/usecase"
)

// Deps groups what the HTTP layer needs. Limiter may be nil.
type Deps struct {
	Coupons    usecase.CouponUseCase
	Purchases  usecase.PurchaseUseCase
	Payments   usecase.PaymentUseCase
	Moderation usecase.ModerationUseCase
	Stats      usecase.StatsUseCase
	Auth       *AuthManager
	Limiter    Limiter
	Health     func(ctx context.Context) error
}

type Server struct {
	coupons    usecase.CouponUseCase
	purchases  usecase.PurchaseUseCase
	payments   usecase.PaymentUseCase
	moderation usecase.ModerationUseCase
	stats      usecase.StatsUseCase
	auth       *AuthManager
	limiter    Limiter
	health     func(ctx context.Context) error

	cfg    config.HTTPConfig
	log    *zerolog.Logger
	server *http.Server
}

func NewServer(d Deps, cfg config.HTTPConfig, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "http").Logger()
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	return &Server{
		coupons:    d.Coupons,
		purchases:  d.Purchases,
		payments:   d.Payments,
		moderation: d.Moderation,
		stats:      d.Stats,
		auth:       d.Auth,
		limiter:    d.Limiter,
		health:     d.Health,
		cfg:        cfg,
		log:        &l,
	}
}

// Router builds the chi mux with every route mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log))

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(Timeout(s.cfg.RequestTimeout), Authenticate(s.auth))

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", s.listCoupons)
			r.With(RequireAuth).Get("/seller/my-coupons", s.myCoupons)
			r.Get("/{id}", s.getCoupon)
			r.Group(func(r chi.Router) {
				r.Use(RequireAuth)
				r.Post("/", s.createCoupon)
				r.Put("/{id}", s.updateCoupon)
				r.Delete("/{id}", s.deleteCoupon)
			})
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Use(RequireAuth)
			r.With(PurchaseRateLimit(s.limiter, s.log)).Post("/request", s.requestPurchase)
			r.Put("/{id}/accept", s.acceptPurchase)
			r.Post("/{id}/pay", s.payPurchase)
			r.Get("/user", s.buyerPurchases)
			r.Get("/seller", s.sellerPurchases)
			r.Get("/pending", s.pendingPurchases)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAuth)
			r.Get("/submissions", s.listSubmissions)
			r.Put("/submissions/{id}/approve", s.approveSubmission)
			r.Put("/submissions/{id}/reject", s.rejectSubmission)
			r.Get("/revenue", s.revenue)
			r.Get("/dashboard", s.dashboard)
		})
	})
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.log.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
