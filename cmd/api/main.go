package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rentflow/rental-api/docs"
	"github.com/rentflow/rental-api/internal/auth"
	"github.com/rentflow/rental-api/internal/config"
	"github.com/rentflow/rental-api/internal/database"
	"github.com/rentflow/rental-api/internal/http/handler"
	"github.com/rentflow/rental-api/internal/http/middleware"
	"github.com/rentflow/rental-api/internal/http/router"
	"github.com/rentflow/rental-api/internal/jobs"
	"github.com/rentflow/rental-api/internal/logger"
	"github.com/rentflow/rental-api/internal/repository"
	"github.com/rentflow/rental-api/internal/scope"
	"github.com/rentflow/rental-api/internal/service"
	"github.com/rentflow/rental-api/internal/storage"
	"go.uber.org/zap"
)

// @title Rental Property API
// @version 1.0
// @description Rental property, contract and maintenance API with tenant portal access
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@rentflow.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Staff JWT Bearer token

// @securityDefinitions.apikey PortalAuth
// @in header
// @name Authorization
// @description Tenant portal token (Bearer), also accepted as the token query parameter

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
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
	} else {
		docs.SwaggerInfo.Host = ""
	}

	// In development secrets come from the environment, elsewhere from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.App.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		log.Info("Database schema auto-migrated")
	}

	documentStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	estateRepo := repository.NewEstateRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	contractRepo := repository.NewContractRepository(db)
	maintenanceRepo := repository.NewMaintenanceRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	// Services
	resolver := scope.NewResolver()
	tokens := auth.NewTokenService(&cfg.Auth)
	portalAccess := service.NewPortalAccess(contractRepo, log)
	statusSync := service.NewPropertyStatusSynchronizer(db, propertyRepo, contractRepo, log)
	documentService := service.NewDocumentService(documentStorage, cfg.Storage.PublicBaseURL, log)

	authService := service.NewAuthService(userRepo, tokens, log)
	userService := service.NewUserService(userRepo, log)
	auditLogService := service.NewAuditLogService(auditLogRepo, log)
	estateService := service.NewEstateService(estateRepo, userRepo, resolver, log)
	propertyService := service.NewPropertyService(db, propertyRepo, estateRepo, contractRepo, userRepo, resolver, log)
	tenantService := service.NewTenantService(tenantRepo, resolver, log)
	contractService := service.NewContractService(
		db, contractRepo, propertyRepo, tenantRepo, maintenanceRepo,
		statusSync, documentService, tokens, portalAccess, resolver, log,
	)
	maintenanceService := service.NewMaintenanceService(db, maintenanceRepo, contractRepo, portalAccess, resolver, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(tokens, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	auditMiddleware := middleware.NewAuditMiddleware(auditLogService, nil, log)

	rt := router.NewRouter(cfg, log, authMiddleware, rateLimiter, auditMiddleware, router.Handlers{
		Health:      handler.NewHealthHandler(db, log),
		Auth:        handler.NewAuthHandler(authService, auditLogService, log),
		User:        handler.NewUserHandler(userService, log),
		Estate:      handler.NewEstateHandler(estateService, log),
		Property:    handler.NewPropertyHandler(propertyService, log),
		Tenant:      handler.NewTenantHandler(tenantService, log),
		Contract:    handler.NewContractHandler(contractService, log),
		Maintenance: handler.NewMaintenanceHandler(maintenanceService, log),
		Portal:      handler.NewPortalHandler(contractService, maintenanceService, log),
		Audit:       handler.NewAuditHandler(auditLogService, log),
	})

	// Background jobs
	scheduler := jobs.NewScheduler(log)
	if cfg.Jobs.LeaseSyncEnabled {
		if err := jobs.RegisterLeaseSyncJob(
			scheduler,
			statusSync,
			log,
			cfg.Jobs.LeaseSyncCron,
			2*time.Minute,
			true, // release properties whose lease lapsed while the API was down
		); err != nil {
			log.Error("Failed to register lease sync job", zap.Error(err))
		}
	} else {
		log.Info("Lease sync job disabled")
	}
	if err := jobs.RegisterAuditRetentionJob(
		scheduler,
		auditLogService,
		cfg.Jobs.AuditRetentionDays,
		log,
		cfg.Jobs.AuditRetentionCron,
		5*time.Minute,
	); err != nil {
		log.Error("Failed to register audit retention job", zap.Error(err))
	}
	if len(scheduler.JobNames()) > 0 {
		scheduler.Start()
		log.Info("Scheduler started", zap.Strings("jobs", scheduler.JobNames()))
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
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		stopCtx := scheduler.Stop()
		<-stopCtx.Done()
		log.Info("Scheduler stopped")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
