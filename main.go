// Package main provides the main entry point for the Herald campaign platform
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heraldhq/herald/app/handlers"
	"github.com/heraldhq/herald/app/middleware"
	"github.com/heraldhq/herald/app/router"
	"github.com/heraldhq/herald/app/scheduler"
	"github.com/heraldhq/herald/app/services"
	businessflow "github.com/heraldhq/herald/business_flow"
	"github.com/heraldhq/herald/config"
	"github.com/heraldhq/herald/repository"
	"github.com/heraldhq/herald/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting Herald application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	gormCfg := &gorm.Config{
		// Duplicate-key errors are detected by the repositories to make bulk
		// recipient inserts idempotent
		TranslateError: true,
	}
	if cfg.SlowQueryLog {
		gormCfg.Logger = logger.New(log.Default(), logger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity.
// Returns nil when caching is disabled; the automation lease degrades to a
// no-op in that case.
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	systemUserID, err := utils.ParseUUID(cfg.System.SystemUserID)
	if err != nil {
		return nil, fmt.Errorf("invalid SYSTEM_USER_ID: %w", err)
	}

	// Initialize repositories
	campaignRepo := repository.NewCampaignRepository(db)
	targetRuleRepo := repository.NewTargetRuleRepository(db)
	recipientRepo := repository.NewRecipientRepository(db)
	contactRepo := repository.NewContactRepository(db)

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	emailSender := services.NewMockEmailSender()

	// Initialize flows
	evaluator := businessflow.NewEligibilityEvaluator(contactRepo, recipientRepo)

	campaignFlow := businessflow.NewCampaignFlow(
		campaignRepo,
		targetRuleRepo,
		recipientRepo,
		contactRepo,
	)

	recipientFlow := businessflow.NewRecipientFlow(
		campaignRepo,
		targetRuleRepo,
		recipientRepo,
		contactRepo,
		evaluator,
	)

	automationFlow := businessflow.NewAutomationFlow(
		campaignRepo,
		recipientRepo,
		contactRepo,
		recipientFlow,
		emailSender,
		rc,
		systemUserID,
	)

	// Initialize handlers
	campaignHandler := handlers.NewCampaignHandler(campaignFlow, recipientFlow)
	automationHandler := handlers.NewAutomationHandler(automationFlow, cfg.Internal.CronSecret)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(cfg, authMiddleware, campaignHandler, automationHandler)

	if cfg.Scheduler.Enabled {
		trigger := scheduler.NewAutomationTrigger(automationFlow, cfg.Logging, cfg.Scheduler.Interval)
		stopTrigger := trigger.Start(context.Background())
		stopFuncs = append(stopFuncs, stopTrigger)
	}

	application := &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
