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

	"github.com/vantage-books/vantage/internal/accounts"
	"github.com/vantage-books/vantage/internal/aging"
	"github.com/vantage-books/vantage/internal/app"
	"github.com/vantage-books/vantage/internal/company"
	"github.com/vantage-books/vantage/internal/ledger"
	"github.com/vantage-books/vantage/internal/masterdata"
	"github.com/vantage-books/vantage/internal/notify"
	"github.com/vantage-books/vantage/internal/numbering"
	"github.com/vantage-books/vantage/internal/observability"
	"github.com/vantage-books/vantage/internal/platform/cache"
	"github.com/vantage-books/vantage/internal/platform/db"
	"github.com/vantage-books/vantage/internal/purchasing"
	"github.com/vantage-books/vantage/internal/sales/orders"
	"github.com/vantage-books/vantage/internal/sales/quotations"
	"github.com/vantage-books/vantage/internal/shared"
	"github.com/vantage-books/vantage/internal/treasury"
	"github.com/vantage-books/vantage/jobs"
)

func main() {
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report caching disabled", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	auditLogger := shared.NewAuditLogger(pool)
	metrics := observability.NewMetrics()

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo, auditLogger)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	companyRepo := company.NewRepository(pool)
	companyService := company.NewService(companyRepo, accountsService, auditLogger)
	companyHandler := company.NewHandler(logger, companyService)

	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, auditLogger)
	ledgerService.WithMetrics(metrics)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	masterdataRepo := masterdata.NewRepository(pool)
	masterdataService := masterdata.NewService(masterdataRepo)
	masterdataHandler := masterdata.NewHandler(logger, masterdataService)

	agingRepo := aging.NewRepository(pool)
	agingService := aging.NewService(agingRepo, redisClient, cfg.AgingCacheTTL, logger)
	agingHandler := aging.NewHandler(logger, agingService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	notifyRepo := notify.NewRepository(pool)
	notifyService := notify.NewService(notifyRepo, jobs.NewEnqueuer(jobClient), logger)
	notifyHandler := notify.NewHandler(logger, notifyService)

	numberingService := numbering.NewService(pool)

	quotationsRepo := quotations.NewRepository(pool)
	quotationsService := quotations.NewService(quotationsRepo, masterdataService, numberingService, notifyService)
	quotationsHandler := quotations.NewHandler(logger, quotationsService)

	purchasingRepo := purchasing.NewRepository(pool)
	purchasingService := purchasing.NewService(purchasingRepo, masterdataService, ledgerService, agingService, logger)
	purchasingHandler := purchasing.NewHandler(logger, purchasingService)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo, masterdataService, ledgerService, agingService, logger)
	ordersHandler := orders.NewHandler(logger, ordersService)

	treasuryRepo := treasury.NewRepository(pool)
	treasuryService := treasury.NewService(treasuryRepo, accountsService, ledgerService)
	treasuryHandler := treasury.NewHandler(logger, treasuryService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		CompanyHandler:    companyHandler,
		AccountsHandler:   accountsHandler,
		LedgerHandler:     ledgerHandler,
		PurchasingHandler: purchasingHandler,
		OrdersHandler:     ordersHandler,
		QuotationsHandler: quotationsHandler,
		TreasuryHandler:   treasuryHandler,
		AgingHandler:      agingHandler,
		MasterDataHandler: masterdataHandler,
		NotifyHandler:     notifyHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
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
