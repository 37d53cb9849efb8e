// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cabin-rental-billing/internal/config"
	"cabin-rental-billing/internal/domain/model"
	"cabin-rental-billing/internal/domain/ports/adapter"
	payAdapters "cabin-rental-billing/internal/infra/adapters/payment"
	pg "cabin-rental-billing/internal/infra/db/postgres"
	"cabin-rental-billing/internal/infra/logging"
	"cabin-rental-billing/internal/infra/metrics"
	"cabin-rental-billing/internal/infra/notify"
	red "cabin-rental-billing/internal/infra/redis"
	"cabin-rental-billing/internal/infra/sched"
	"cabin-rental-billing/internal/infra/web"
	"cabin-rental-billing/internal/infra/worker"
	"cabin-rental-billing/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed checks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	listingRepo := pg.NewListingRepo(pool)
	eventRepo := pg.NewPaymentEventRepo(pool)
	discountRepo := pg.NewDiscountCodeRepoCacheDecorator(pg.NewDiscountCodeRepo(pool), redisClient, cfg.Redis.TTL)

	// ---- Notifications ----
	pool4 := worker.NewPool(4)
	pool4.Start(ctx)
	defer pool4.Stop()
	notifier := notify.NewDispatcher(pool4, notify.NewEmailNotifier(logger), logger)

	// ---- Payment provider ----
	var provider adapter.PaymentProvider
	if cfg.Vipps.UseNoop {
		provider = payAdapters.NewNoopClient()
		logger.Warn().Msg("payment provider: noop (no network calls)")
	} else {
		provider = payAdapters.NewVippsClient(cfg.Vipps, logger)
		logger.Info().Str("base_url", cfg.Vipps.BaseURL).Msg("payment provider: vipps recurring")
	}

	// ---- Use cases ----
	pricing := usecase.PlanPricing{
		model.PlanBasic:   cfg.Billing.BasicPrice,
		model.PlanPremium: cfg.Billing.PremiumPrice,
	}
	validator := usecase.NewDiscountCodeValidator(discountRepo, subRepo, logger)
	agreementUC := usecase.NewAgreementUseCase(listingRepo, subRepo, validator, provider, tm, pricing, logger)
	webhookUC := usecase.NewWebhookReconciler(subRepo, listingRepo, eventRepo, tm, notifier, logger)
	cancelUC := usecase.NewCancellationUseCase(subRepo, provider, tm, notifier, logger)
	sweepUC := usecase.NewSweepUseCase(subRepo, listingRepo, tm, logger)

	// ---- HTTP server ----
	metrics.MustRegister()
	verifier := web.NewSignatureVerifier(cfg.Vipps.WebhookSecret, logger)
	auth := web.NewAuthManager(cfg.Auth.HMACSecret, 0)
	srv := web.NewServer(agreementUC, cancelUC, webhookUC, verifier, auth, rateLimiter, cfg.Billing.CreateRateLimit, logger)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:     srv.Router(),
		ReadTimeout: cfg.HTTP.ReadTimeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Period sweep ----
	sweeper := sched.NewExpiryWorker(cfg.Sweep.Interval, cfg.Sweep.Batch, sweepUC, logger)
	go func() { _ = sweeper.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
