// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-group-subscription/internal/config"
	"telegram-group-subscription/internal/domain/ports/adapter"
	pg "telegram-group-subscription/internal/infra/db/postgres"
	httpapi "telegram-group-subscription/internal/infra/http"
	"telegram-group-subscription/internal/infra/i18n"
	"telegram-group-subscription/internal/infra/logging"
	"telegram-group-subscription/internal/infra/metrics"
	"telegram-group-subscription/internal/infra/payment"
	red "telegram-group-subscription/internal/infra/redis"
	"telegram-group-subscription/internal/infra/sched"
	tele "telegram-group-subscription/internal/infra/telegram"
	"telegram-group-subscription/internal/infra/web"
	"telegram-group-subscription/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop gateway)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	stateRepo := red.NewStateRepo(redisClient, cfg.Redis.StateTTL)

	// ---- Repositories ----
	userRepo := pg.NewUserRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	manualRepo := pg.NewManualPaymentRepo(pool)
	settingsRepo := pg.NewSettingsRepoCacheDecorator(pg.NewSettingsRepo(pool), redisClient)

	// ---- Translations ----
	lex, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev || cfg.Payment.YooKassa.ShopID == "" {
		logger.Warn().Msg("no gateway credentials; using noop gateway")
		gateway = payment.NewNoopGateway()
	} else {
		gateway = payment.NewYooKassaGateway(
			cfg.Payment.YooKassa.ShopID,
			cfg.Payment.YooKassa.SecretKey,
			cfg.Payment.YooKassa.ReturnURL,
		)
	}

	// ---- Telegram adapter ----
	botAdapter, err := tele.NewRealBotAdapter(cfg.Bot.Token, cfg.Bot.Workers, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, logger)
	settingsUC := usecase.NewSettingsUseCase(settingsRepo, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, subRepo, payRepo)
	reconciler := usecase.NewReconcilerUseCase(subRepo, userRepo, botAdapter, lex, cfg.Bot.GroupID, cfg.Subscription.InviteTTL(), logger)
	lifecycleUC := usecase.NewLifecycleUseCase(payRepo, subRepo, manualRepo, tm, reconciler, cfg.Subscription.Term(), logger)
	initiationUC := usecase.NewInitiationUseCase(subRepo, payRepo, manualRepo, gateway, cfg.Subscription.MinAmount, cfg.Subscription.Currency, cfg.Subscription.Term(), logger)
	sweepUC := usecase.NewSweepUseCase(subRepo, userRepo, botAdapter, lex, cfg.Bot.GroupID, cfg.Subscription.Grace(), logger)

	// ---- Telegram polling ----
	handler := tele.NewBotHandler(
		botAdapter, lex, stateRepo,
		userUC, initiationUC, lifecycleUC, settingsUC, statsUC,
		subRepo, payRepo, userRepo, gateway,
		&cfg.Bot, &cfg.Subscription, logger,
	)
	go func() {
		if err := botAdapter.StartPolling(ctx, handler.Handle); err != nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Webhook server ----
	webhookSrv := httpapi.NewServer(lifecycleUC, gateway, cfg.Payment.WebhookPort, logger)
	go func() {
		if err := webhookSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("webhook server error")
		}
	}()

	// ---- Admin web API ----
	webSrv := web.NewServer(statsUC, settingsUC, manualRepo, payRepo, &cfg.Web, cfg.Runtime.Dev, logger)
	go func() {
		if err := webSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("admin web error")
		}
	}()

	// ---- Schedulers ----
	expiryWorker := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, sweepUC, locker, logger)
	warningWorker := sched.NewWarningWorker(cfg.Scheduler.WarningInterval, sweepUC, locker, logger)
	go func() { _ = expiryWorker.Run(ctx) }()
	go func() { _ = warningWorker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := webhookSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("webhook shutdown")
	}
	if err := webSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("admin web shutdown")
	}
}
