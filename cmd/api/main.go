package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/straye-as/crm-api/docs"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/cache"
	"github.com/straye-as/crm-api/internal/config"
	"github.com/straye-as/crm-api/internal/database"
	"github.com/straye-as/crm-api/internal/http/handler"
	"github.com/straye-as/crm-api/internal/http/middleware"
	"github.com/straye-as/crm-api/internal/http/router"
	"github.com/straye-as/crm-api/internal/jobs"
	"github.com/straye-as/crm-api/internal/logger"
	"github.com/straye-as/crm-api/internal/metrics"
	"github.com/straye-as/crm-api/internal/phone"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

// @title Straye CRM API
// @version 1.0
// @description Contacts, leads, deal pipeline and activities with role-based access.

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Basic configuration first, for logging setup
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if basicCfg.App.Environment == "development" {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Full configuration with secrets from the environment or Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if cfg.Auth.JWTSecret == "" && cfg.ApiKey.Value == "" {
		log.Warn("Neither JWT secret nor API key configured; every API request will be rejected")
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("Database schema migrated from models")
	}

	// Redis is optional; reports are computed on every request without it
	var reportCache *cache.Cache
	if cfg.Redis.Enabled {
		reportCache, err = cache.New(ctx, &cfg.Redis, log)
		if err != nil {
			log.Warn("Redis connection failed, continuing without report cache", zap.Error(err))
			reportCache = nil
		}
	} else {
		log.Info("Report cache disabled")
	}

	m := metrics.New()
	phones := phone.NewNormalizer(cfg.Phone.DefaultRegion)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	dealRepo := repository.NewDealRepository(db)
	dealStageHistoryRepo := repository.NewDealStageHistoryRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Services
	userService := service.NewUserService(userRepo, reportCache, log)
	contactService := service.NewContactService(contactRepo, userRepo, phones, log)
	leadService := service.NewLeadService(leadRepo, contactRepo, dealRepo, userRepo, phones, reportCache, m, log)
	dealService := service.NewDealService(dealRepo, dealStageHistoryRepo, userRepo, contactRepo, leadRepo, reportCache, m, log)
	activityService := service.NewActivityService(activityRepo, userRepo, contactRepo, leadRepo, dealRepo, m, log)
	reportService := service.NewReportService(dealRepo, activityRepo, reportCache, cfg.Redis.ReportTTLDuration(), m, log)

	authMiddleware := auth.NewMiddleware(cfg, userRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, db, reportCache, m, authMiddleware, rateLimiter, router.Handlers{
		Auth:     handler.NewAuthHandler(userService, log),
		User:     handler.NewUserHandler(userService, log),
		Contact:  handler.NewContactHandler(contactService, log),
		Lead:     handler.NewLeadHandler(leadService, log),
		Deal:     handler.NewDealHandler(dealService, log),
		Activity: handler.NewActivityHandler(activityService, log),
		Report:   handler.NewReportHandler(reportService, log),
	})

	var scheduler *jobs.Scheduler
	if cfg.Jobs.PipelineMetricsEnabled {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.RegisterPipelineMetricsJob(
			scheduler,
			reportService,
			log,
			cfg.Jobs.PipelineMetricsCron,
			cfg.Jobs.PipelineMetricsTimeoutDuration(),
		); err != nil {
			log.Error("Failed to register pipeline metrics job", zap.Error(err))
			scheduler = nil
		} else {
			scheduler.Start()
			next, _ := scheduler.Next(jobs.PipelineMetricsJobName)
			log.Info("Scheduler started with pipeline metrics job",
				zap.String("cron_expr", cfg.Jobs.PipelineMetricsCron),
				zap.Duration("timeout", cfg.Jobs.PipelineMetricsTimeoutDuration()),
				zap.Time("next_run", next),
			)
		}
	} else {
		log.Info("Pipeline metrics job disabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
		defer cancel()

		if scheduler != nil {
			if err := scheduler.Shutdown(shutdownCtx); err != nil {
				log.Warn("Scheduler did not stop in time", zap.Error(err))
			} else {
				log.Info("Scheduler stopped")
			}
		}

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}
	}

	if err := reportCache.Close(); err != nil {
		log.Warn("Error closing redis connection", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("Server stopped gracefully")
	return nil
}
