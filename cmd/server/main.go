package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/retailpos/backend/internal/application/catalog"
	financeapp "github.com/retailpos/backend/internal/application/finance"
	inventoryapp "github.com/retailpos/backend/internal/application/inventory"
	reportapp "github.com/retailpos/backend/internal/application/report"
	appshared "github.com/retailpos/backend/internal/application/shared"
	tradeapp "github.com/retailpos/backend/internal/application/trade"
	"github.com/retailpos/backend/internal/infrastructure/cache"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"github.com/retailpos/backend/internal/infrastructure/export"
	"github.com/retailpos/backend/internal/infrastructure/idgen"
	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/retailpos/backend/internal/infrastructure/persistence"
	"github.com/retailpos/backend/internal/infrastructure/scheduler"
	"github.com/retailpos/backend/internal/infrastructure/strategy/allocation"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
	"github.com/retailpos/backend/internal/interfaces/http/handler"
	"github.com/retailpos/backend/internal/interfaces/http/middleware"
	"github.com/retailpos/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const orderNumberPrefix = "ORD"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting retail back-office",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("timezone", cfg.App.Location().String()),
	)

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		Environment:       cfg.App.Env,
		NodeID:            cfg.App.NodeID,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		Environment:       cfg.App.Env,
		NodeID:            cfg.App.NodeID,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	var (
		meter    metric.Meter
		recorder appshared.BusinessRecorder = appshared.NoopRecorder{}
	)
	if meterProvider.IsEnabled() {
		meter = meterProvider.Meter(cfg.Telemetry.ServiceName)
		metrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{Meter: meter, Logger: log})
		if err != nil {
			log.Warn("Business metrics disabled", zap.Error(err))
		} else {
			recorder = metrics
		}
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	dbSystem := "postgresql"
	if cfg.Database.Driver == config.DriverSQLite {
		dbSystem = "sqlite"
	}
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Database tracing not registered", zap.Error(err))
	}
	if meter != nil {
		if _, err := telemetry.RegisterPoolMetrics(meter, db); err != nil {
			log.Warn("Pool metrics not registered", zap.Error(err))
		}
	}

	// Redis-backed stores, in-memory when Redis is unreachable
	stores, err := cache.NewStoreFactory(cfg.Redis, cache.WithLogger(log)).Create(ctx)
	if err != nil {
		log.Fatal("Failed to initialize cache stores", zap.Error(err))
	}
	defer func() { _ = stores.Close() }()

	// Application services
	txScope := persistence.NewGormTransactionScope(db.DB)
	orderNumbers, err := idgen.NewSnowflakeOrderNumbers(cfg.App.NodeID, orderNumberPrefix)
	if err != nil {
		log.Fatal("Failed to initialize order numbers", zap.Error(err))
	}

	var invalidator appshared.ReportInvalidator = appshared.NoopInvalidator{}
	reportOpts := []reportapp.Option{
		reportapp.WithLogger(log),
		reportapp.WithRecorder(recorder),
		reportapp.WithLocation(cfg.App.Location()),
		reportapp.WithForecastDefaults(cfg.Report.DefaultMonthsBack, cfg.Report.DefaultTopN),
		reportapp.WithRenderer(export.NewXLSXRenderer()),
	}
	if cfg.Report.CacheEnabled {
		invalidator = stores.Reports
		reportOpts = append(reportOpts, reportapp.WithCache(stores.Reports, cfg.Report.CacheTTL))
	}

	ledgerService := financeapp.NewLedgerService(txScope, allocation.NewFIFOAllocationStrategy(),
		financeapp.WithLogger(log),
		financeapp.WithRecorder(recorder),
		financeapp.WithPartyLocker(stores.Locker, cfg.Ledger.PaymentLockTTL),
		financeapp.WithIdempotency(stores.Idempotency, cfg.Ledger.IdempotencyTTL),
	)
	bookkeepingService := financeapp.NewBookkeepingService(txScope, invalidator, log)
	variantService := catalogapp.NewVariantService(txScope,
		catalogapp.WithLogger(log),
		catalogapp.WithRecorder(recorder),
		catalogapp.WithReportInvalidator(invalidator),
	)
	orderService := tradeapp.NewOrderService(txScope, orderNumbers,
		tradeapp.WithLogger(log),
		tradeapp.WithRecorder(recorder),
		tradeapp.WithReportInvalidator(invalidator),
	)
	wasteService := inventoryapp.NewWasteService(txScope,
		inventoryapp.WithLogger(log),
		inventoryapp.WithRecorder(recorder),
		inventoryapp.WithReportInvalidator(invalidator),
	)
	reportService := reportapp.NewReportService(persistence.NewGormReportReader(db.DB), reportOpts...)

	// Nightly report warm-up
	var warmer *scheduler.ForecastWarmer
	if cfg.Scheduler.Enabled {
		warmer, err = scheduler.NewForecastWarmer(scheduler.ForecastWarmerConfig{
			CronSchedule: cfg.Scheduler.CronSchedule,
			ActiveDays:   cfg.Scheduler.ActiveDays,
			JobTimeout:   cfg.Scheduler.JobTimeout,
		}, persistence.NewGormOrderRepository(db.DB), reportService, log)
		if err != nil {
			log.Fatal("Failed to initialize forecast warmer", zap.Error(err))
		}
		warmer.Start()
		log.Info("Forecast warmer started", zap.String("schedule", cfg.Scheduler.CronSchedule))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	tracing := middleware.DefaultTracingConfig()
	tracing.Enabled = tracerProvider.IsEnabled()
	if cfg.Telemetry.ServiceName != "" {
		tracing.ServiceName = cfg.Telemetry.ServiceName
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger:         log,
		HTTP:           cfg.HTTP,
		Tracing:        tracing,
		Meter:          meter,
		RequestTimeout: cfg.HTTP.WriteTimeout,
	}, router.Handlers{
		Ledger:      handler.NewLedgerHandler(ledgerService),
		Catalog:     handler.NewCatalogHandler(variantService),
		Orders:      handler.NewOrderHandler(orderService),
		Inventory:   handler.NewInventoryHandler(wasteService),
		Bookkeeping: handler.NewBookkeepingHandler(bookkeepingService),
		Reports:     handler.NewReportHandler(reportService),
		Health:      handler.NewHealthHandler(db),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if warmer != nil {
		if err := warmer.Stop(shutdownCtx); err != nil {
			log.Warn("Forecast warmer did not stop cleanly", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
