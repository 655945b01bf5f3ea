package main

import (
	"context"
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

	"github.com/stemhub-africa/stemhub-service/internal/cache"
	"github.com/stemhub-africa/stemhub-service/internal/config"
	"github.com/stemhub-africa/stemhub-service/internal/events"
	"github.com/stemhub-africa/stemhub-service/internal/handlers"
	"github.com/stemhub-africa/stemhub-service/internal/jobs"
	"github.com/stemhub-africa/stemhub-service/internal/repositories/casdoor"
	"github.com/stemhub-africa/stemhub-service/internal/repositories/postgres"
	"github.com/stemhub-africa/stemhub-service/internal/services"
	"github.com/stemhub-africa/stemhub-service/internal/storage"
	"github.com/stemhub-africa/stemhub-service/internal/utils"
	"github.com/stemhub-africa/stemhub-service/internal/validator"
	"github.com/stemhub-africa/stemhub-service/pkg"
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

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", "error", err)
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
		RedirectURL:      cfg.Casdoor.RedirectURL,
	}, cacheManager)

	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		Identity:    identity,
	})

	// Event publisher
	var publisher events.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka publisher: %v", err)
		}
		publisher = kafkaPublisher
	} else {
		logger.Warn("No Kafka brokers configured, events are only logged")
		publisher = events.NewMockEventPublisher(slogLogger)
	}

	// Object storage for past paper uploads
	var presigner storage.Presigner
	if cfg.Storage.Endpoint != "" {
		store, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize object storage: %v", err)
		}
		bucketCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := store.EnsureBuckets(bucketCtx); err != nil {
			logger.Warn("Failed to ensure storage buckets", "error", err)
		}
		cancel()
		presigner = store
	}

	// Initialize services
	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:         repo,
		CacheManager: cacheManager,
		Publisher:    publisher,
		Presigner:    presigner,
		Logger:       slogLogger,
		Validator:    validator.New(),
		Session: services.SessionConfig{
			AdminEmails:       cfg.Auth.AdminEmails,
			ContributorEmails: cfg.Auth.ContributorEmails,
			MaxAttempts:       cfg.Auth.BootstrapAttempts,
			BaseDelay:         cfg.Auth.BootstrapBaseDelay,
			StateSecret:       cfg.Auth.StateSecret,
			StateTTL:          cfg.Auth.StateTTL,
		},
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Background jobs
	scheduler := jobs.NewScheduler(cfg.Jobs.BacklogSchedule, serviceManager.Review(), publisher, slogLogger)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.AllowedOrigins)

	handlerManager := handlers.NewHandlerManager(serviceManager, logger, handlers.HandlerConfig{
		AppBaseURL: cfg.AppBaseURL,
		Cookie: handlers.SessionCookieConfig{
			Name:   cfg.Auth.SessionCookieName,
			MaxAge: cfg.Auth.SessionCookieMaxAge,
			Secure: cfg.IsProduction(),
		},
	})
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scheduler.Stop(ctx)

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	// Closes the database and Redis connections
	if err := repo.Close(); err != nil {
		logger.Error("Failed to close repositories", "error", err)
	}

	logger.Info("Server exited")
}
