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
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	reportapp "github.com/koperasi/backend/internal/application/report"
	"github.com/koperasi/backend/internal/domain/ledger"
	"github.com/koperasi/backend/internal/infrastructure/cache"
	"github.com/koperasi/backend/internal/infrastructure/config"
	"github.com/koperasi/backend/internal/infrastructure/logger"
	"github.com/koperasi/backend/internal/infrastructure/persistence"
	"github.com/koperasi/backend/internal/infrastructure/telemetry"
	"github.com/koperasi/backend/internal/interfaces/http/handler"
	"github.com/koperasi/backend/internal/interfaces/http/middleware"
	"github.com/koperasi/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(baseLog)
	}()

	ctx := context.Background()

	// Each signal is exported only when enabled
	providers, err := telemetry.Setup(ctx, telemetry.ConfigFrom(cfg.Telemetry), baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			baseLog.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log := providers.Bridge(baseLog, logger.ParseLevel(cfg.Log.Level))

	log.Info("Starting koperasi report service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	db, err := persistence.Open(&cfg.Database,
		persistence.WithLogger(logger.NewSQLLogger(log, cfg.Log.Level, cfg.Telemetry.DBSlowQueryThresh)))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := prepareDatabase(ctx, cfg.Database, db, log); err != nil {
		log.Fatal("Failed to prepare database", zap.Error(err))
	}

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.DBTraceEnabled,
		DBSystem:   db.System(),
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
	}, log); err != nil {
		log.Fatal("Failed to enable database tracing", zap.Error(err))
	}

	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, providers.Meter("koperasi.db"), telemetry.DBMetricsConfig{
		Enabled:            cfg.Telemetry.MetricsEnabled,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Warn("Database metrics unavailable", zap.Error(err))
	}
	defer func() {
		if err := dbMetrics.Stop(); err != nil {
			log.Error("Error stopping database metrics", zap.Error(err))
		}
	}()

	// Ledger store and aggregator
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	aggregator := ledger.NewAggregator(ledgerRepo, ledger.WithCashAccountCode(cfg.Report.CashAccountCode))

	serviceOpts := []reportapp.ServiceOption{reportapp.WithLogger(log)}

	cacheFactory := cache.NewReportCacheFactory(cfg.Report, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	reportCache, err := cacheFactory.Create(ctx)
	if err != nil {
		log.Fatal("Failed to initialize report cache", zap.Error(err))
	}
	if reportCache != nil {
		defer func() {
			if err := reportCache.Close(); err != nil {
				log.Error("Error closing report cache", zap.Error(err))
			}
		}()
		serviceOpts = append(serviceOpts, reportapp.WithCache(reportCache, ledgerRepo, cacheFactory.TTL()))
	}

	reportMetrics, err := telemetry.NewReportMetrics(providers.Meter("koperasi.report"))
	if err != nil {
		log.Warn("Report metrics unavailable", zap.Error(err))
	} else {
		serviceOpts = append(serviceOpts, reportapp.WithMetrics(reportMetrics))
	}

	reportService := reportapp.NewFinancialReportService(aggregator, serviceOpts...)

	// Initialize HTTP handlers
	reportHandler := handler.NewFinancialReportHandler(reportService)
	systemHandler := handler.NewSystemHandler(db, cfg.App.Name, telemetry.ServiceVersion)

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// CORS answers preflights before tracing and metrics see them
	engine.Use(middleware.RequestID(), logger.Recovery(log), middleware.CORS())
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName), middleware.AnnotateSpan())
	}
	var httpMeter metric.Meter
	if providers.MetricsEnabled() {
		httpMeter = providers.Meter("http.server")
	}
	engine.Use(middleware.HTTPMetrics(httpMeter))
	engine.Use(logger.GinMiddleware(log, logger.SkipPaths("/health")))
	engine.Use(middleware.Secure())

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	reports := router.NewModule("report", "/financial-reports")
	if cfg.HTTP.RateLimit > 0 {
		reports.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.RateLimit, time.Minute)))
	}
	reports.GET("", reportHandler.GetFinancialReport)

	system := router.NewModule("system", "/system").GET("/info", systemHandler.GetSystemInfo)

	// the unversioned report path is the one existing dashboard builds call
	router.New(engine, "v1").
		API(reports, system).
		Legacy(reports).
		Build()

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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// prepareDatabase creates the schema and loads seed data when configured.
// Postgres deployments run cmd/migrate instead.
func prepareDatabase(ctx context.Context, cfg config.DatabaseConfig, db *persistence.Database, log *zap.Logger) error {
	if !cfg.AutoMigrate {
		return nil
	}

	if err := persistence.AutoMigrate(db.DB); err != nil {
		return err
	}
	accounts, err := persistence.SeedChart(ctx, db.DB)
	if err != nil {
		return err
	}
	log.Info("Chart of accounts seeded", zap.Int64("inserted", accounts))

	if !cfg.SeedSample {
		return nil
	}
	entries, err := persistence.SeedSampleJournal(ctx, db.DB)
	if err != nil {
		return err
	}
	log.Info("Sample journal seeded", zap.Int("entries", entries))
	return nil
}
