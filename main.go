package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/flexible-healthcare/training-service/internal/cache"
	"github.com/flexible-healthcare/training-service/internal/config"
	"github.com/flexible-healthcare/training-service/internal/events"
	"github.com/flexible-healthcare/training-service/internal/handlers"
	"github.com/flexible-healthcare/training-service/internal/ratelimit"
	"github.com/flexible-healthcare/training-service/internal/repositories/casdoor"
	"github.com/flexible-healthcare/training-service/internal/repositories/postgres"
	"github.com/flexible-healthcare/training-service/internal/services"
	"github.com/flexible-healthcare/training-service/internal/storage"
	"github.com/flexible-healthcare/training-service/internal/utils"
	"github.com/flexible-healthcare/training-service/internal/validator"
	"github.com/flexible-healthcare/training-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Redis is optional: without it there is no cache, revocation or rate limiting
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without it", "error", err)
			redisClient = nil
		}
	}
	cacheManager := cache.NewCacheManager(redisClient)

	// Initialize repositories
	identity := casdoor.NewIdentityCasdoor(casdoor.CasdoorConfig{
		Endpoint:         cfg.Casdoor.Endpoint,
		ClientID:         cfg.Casdoor.ClientID,
		ClientSecret:     cfg.Casdoor.ClientSecret,
		Certificate:      cfg.Casdoor.Cert,
		OrganizationName: cfg.Casdoor.Organization,
		ApplicationName:  cfg.Casdoor.Application,
	}, cacheManager)

	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:           db,
		RedisClient:  redisClient,
		Users:        identity,
		CacheManager: cacheManager,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Event bus
	bus, err := events.NewBus(cfg.Kafka, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event bus: %v", err)
	}
	publisher := events.NewWatermillPublisher(bus.Publisher, cfg.Kafka.TopicPrefix, slogLogger)
	eventRouter, err := events.NewRouter(bus.Subscriber, cfg.Kafka.TopicPrefix, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event router: %v", err)
	}

	// Object storage is optional; avatar uploads answer 503 without it
	var store storage.ObjectStore
	if cfg.Storage.Endpoint != "" {
		minioStore, err := storage.NewMinioStore(cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize object storage: %v", err)
		}
		store = minioStore
	}

	// Session tokens
	var revoker services.TokenRevoker
	var limiter handlers.RateLimiter
	if redisClient != nil {
		revoker = services.NewRedisTokenRevoker(redisClient)
		authLimiter, err := ratelimit.NewFixedWindowLimiter(redisClient, "training:ratelimit:auth", cfg.AuthRateLimit, cfg.AuthRateWindow)
		if err != nil {
			logger.Warn("Auth rate limiting disabled", "error", err)
		} else {
			limiter = authLimiter
		}
	}
	tokens := services.NewTokenIssuer(cfg.Session, revoker)

	// Initialize services
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:         repoManager.GetRepository(),
		CacheManager: cacheManager,
		Logger:       slogLogger,
		Validator:    validator.New(),
		Publisher:    publisher,
		Store:        store,
		Tokens:       tokens,
	}, services.ServiceManagerConfig{
		CertificateValidity: cfg.CertificateValidity,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	serviceManager.RegisterEventHandlers(eventRouter)

	eventCtx, stopEvents := context.WithCancel(context.Background())
	go func() {
		if err := eventRouter.Run(eventCtx); err != nil {
			logger.Error("Event router stopped", "error", err)
		}
	}()

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, limiter, logger)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.CORSOrigins)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "event_bus", bus.Kind)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	// Stop consuming before closing the bus
	stopEvents()
	if err := eventRouter.Close(); err != nil {
		logger.Error("Failed to close event router", "error", err)
	}
	if err := bus.Close(); err != nil {
		logger.Error("Failed to close event bus", "error", err)
	}

	// Closes database and Redis
	if err := repoManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to close repositories", "error", err)
	}

	logger.Info("Server exited")
}
