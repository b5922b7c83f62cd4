package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gestionpro/gestionpro/internal/app"
	"github.com/gestionpro/gestionpro/internal/auth"
	"github.com/gestionpro/gestionpro/internal/fx"
	"github.com/gestionpro/gestionpro/internal/integrations"
	"github.com/gestionpro/gestionpro/internal/ledger"
	"github.com/gestionpro/gestionpro/internal/masterdata/branches"
	"github.com/gestionpro/gestionpro/internal/masterdata/customers"
	"github.com/gestionpro/gestionpro/internal/masterdata/products"
	"github.com/gestionpro/gestionpro/internal/masterdata/suppliers"
	"github.com/gestionpro/gestionpro/internal/observability"
	"github.com/gestionpro/gestionpro/internal/orders"
	"github.com/gestionpro/gestionpro/internal/platform/cache"
	"github.com/gestionpro/gestionpro/internal/platform/db"
	"github.com/gestionpro/gestionpro/internal/rbac"
	"github.com/gestionpro/gestionpro/internal/roles"
	"github.com/gestionpro/gestionpro/internal/sales/documents"
	"github.com/gestionpro/gestionpro/internal/sales/settlement"
	"github.com/gestionpro/gestionpro/internal/shared"
	"github.com/gestionpro/gestionpro/internal/storage"
	"github.com/gestionpro/gestionpro/internal/users"
	"github.com/gestionpro/gestionpro/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "gestionpro_session", cfg.SessionTTL)
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	rbacService := rbac.NewService(dbpool)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	uploader, err := storage.NewUploader(ctx, storage.Config{
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		logger.Error("configure storage", slog.Any("error", err))
		os.Exit(1)
	}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("configure job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	authService := auth.NewService(dbpool)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger)
	ledgerHandler := ledger.NewHandler(logger, ledgerService, rbacMiddleware)

	branchRepo := branches.NewRepository(dbpool)
	branchService := branches.NewService(branchRepo, auditLogger)
	branchHandler := branches.NewHandler(logger, branchService, rbacMiddleware)

	customerRepo := customers.NewRepository(dbpool)
	customerService := customers.NewService(customerRepo, auditLogger)
	customerHandler := customers.NewHandler(logger, customerService, rbacMiddleware)

	supplierRepo := suppliers.NewRepository(dbpool)
	supplierService := suppliers.NewService(supplierRepo, auditLogger)
	supplierHandler := suppliers.NewHandler(logger, supplierService, rbacMiddleware)

	productRepo := products.NewRepository(dbpool)
	productService := products.NewService(productRepo, ledgerService, branchService, auditLogger)
	productHandler := products.NewHandler(logger, productService, rbacMiddleware, uploader)

	fxClient := fx.NewClient(cfg.FXAPIURL)
	fxService := fx.NewService(logger, fxClient, redisClient, cfg.FXCacheTTL, cfg.FXFallbackRate)
	fxHandler := fx.NewHandler(logger, fxService)

	documentRepo := documents.NewRepository(dbpool)
	documentService := documents.NewService(logger, documentRepo, ledgerService, branchService, auditLogger)
	documentHandler := documents.NewHandler(logger, documentService, rbacMiddleware, fxService, cfg.BaseCurrency)

	settlementRepo := settlement.NewRepository(dbpool, documentRepo)
	settlementService := settlement.NewService(settlementRepo, auditLogger)
	settlementHandler := settlement.NewHandler(logger, settlementService, rbacMiddleware)

	orderRepo := orders.NewRepository(dbpool)
	orderResolver := orders.NewResolver(orderRepo)
	orderService := orders.NewService(logger, orderRepo, orderResolver, productService, documentService, jobClient, idempotencyStore)
	orderHandler := orders.NewHandler(logger, orderService, rbacMiddleware)

	integrationRepo := integrations.NewRepository(dbpool)
	integrationService := integrations.NewService(logger, integrationRepo, ledgerService, productService, &integrations.LogPublisher{Logger: logger})
	integrationHandler := integrations.NewHandler(logger, integrationService, rbacMiddleware)

	userRepo := users.NewRepository(dbpool)
	userService := users.NewService(logger, userRepo, jobClient, auditLogger)
	userHandler := users.NewHandler(logger, userService, rbacMiddleware, uploader)

	roleRepo := roles.NewRepository(dbpool)
	roleService := roles.NewService(roleRepo, auditLogger)
	roleHandler := roles.NewHandler(logger, roleService, rbacMiddleware)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		AuthHandler:        authHandler,
		CustomersHandler:   customerHandler,
		SuppliersHandler:   supplierHandler,
		ProductsHandler:    productHandler,
		BranchesHandler:    branchHandler,
		LedgerHandler:      ledgerHandler,
		DocumentsHandler:   documentHandler,
		SettlementHandler:  settlementHandler,
		OrdersHandler:      orderHandler,
		IntegrationHandler: integrationHandler,
		UsersHandler:       userHandler,
		RolesHandler:       roleHandler,
		FxHandler:          fxHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
