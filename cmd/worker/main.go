package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/gestionpro/gestionpro/internal/app"
	"github.com/gestionpro/gestionpro/internal/fx"
	"github.com/gestionpro/gestionpro/internal/integrations"
	"github.com/gestionpro/gestionpro/internal/ledger"
	"github.com/gestionpro/gestionpro/internal/masterdata/branches"
	"github.com/gestionpro/gestionpro/internal/masterdata/products"
	"github.com/gestionpro/gestionpro/internal/orders"
	"github.com/gestionpro/gestionpro/internal/platform/cache"
	"github.com/gestionpro/gestionpro/internal/platform/db"
	"github.com/gestionpro/gestionpro/internal/sales/documents"
	"github.com/gestionpro/gestionpro/internal/shared"
	"github.com/gestionpro/gestionpro/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger)

	branchRepo := branches.NewRepository(pool)
	branchService := branches.NewService(branchRepo, auditLogger)

	productRepo := products.NewRepository(pool)
	productService := products.NewService(productRepo, ledgerService, branchService, auditLogger)

	documentRepo := documents.NewRepository(pool)
	documentService := documents.NewService(logger, documentRepo, ledgerService, branchService, auditLogger)

	orderRepo := orders.NewRepository(pool)
	orderResolver := orders.NewResolver(orderRepo)
	// The worker never enqueues; received orders arrive through the queue.
	orderService := orders.NewService(logger, orderRepo, orderResolver, productService, documentService, nil, idempotencyStore)

	integrationRepo := integrations.NewRepository(pool)
	integrationService := integrations.NewService(logger, integrationRepo, ledgerService, productService, &integrations.LogPublisher{Logger: logger})

	fxClient := fx.NewClient(cfg.FXAPIURL)
	fxService := fx.NewService(logger, fxClient, redisClient, cfg.FXCacheTTL, cfg.FXFallbackRate)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOrderIngest, Handler: jobs.NewOrderIngestHandler(orderService)},
			{Type: jobs.TaskPlatformSync, Handler: jobs.NewPlatformSyncHandler(integrationService)},
			{Type: jobs.TaskFxRefresh, Handler: jobs.NewFxRefreshHandler(fxService)},
			{Type: jobs.TaskIdempotencyCleanup, Handler: jobs.NewIdempotencyCleanupHandler(idempotencyStore)},
			{Type: jobs.TaskInviteEmail, Handler: jobs.NewInviteEmailHandler(logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/10 * * * *", Task: jobs.NewFxRefreshTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("configure worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker shut down")
}
