package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sevadesk/civicbook/internal/adapters/cache"
	"github.com/sevadesk/civicbook/internal/adapters/database"
	"github.com/sevadesk/civicbook/internal/adapters/events"
	"github.com/sevadesk/civicbook/internal/adapters/storage"
	"github.com/sevadesk/civicbook/internal/api/handlers"
	"github.com/sevadesk/civicbook/internal/api/middleware"
	"github.com/sevadesk/civicbook/internal/api/routes"
	"github.com/sevadesk/civicbook/internal/application/services"
	"github.com/sevadesk/civicbook/internal/domain/providers"
	"github.com/sevadesk/civicbook/internal/infrastructure/clients/postgres"
	"github.com/sevadesk/civicbook/internal/infrastructure/clients/redis"
	"github.com/sevadesk/civicbook/internal/infrastructure/observability"
	"github.com/sevadesk/civicbook/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	log.Info().Msg("PostgreSQL client initialized successfully")

	// Initialize Redis client; booking still works without caching or events
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize Redis client; continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time booking updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("Event bus initialized successfully")
	} else {
		log.Info().Msg("Event bus disabled (Redis not available)")
	}

	// Initialize document storage
	documentStore, err := storage.NewLocalStore(&cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize document storage")
	}

	// Initialize adapters
	ledgerAdapter := database.NewLedgerAdapter(pgClient)
	bookingAdapter := database.NewBookingAdapter(pgClient)
	departmentAdapter := database.NewDepartmentAdapter(pgClient)
	serviceAdapter := database.NewServiceAdapter(pgClient)

	// Initialize services
	slotService := services.NewSlotService(departmentAdapter, serviceAdapter, ledgerAdapter)
	bookingService := services.NewBookingService(
		bookingAdapter,
		departmentAdapter,
		serviceAdapter,
		eventBus,
		slotService,
		cfg.Booking.ReserveMaxAttempts,
	)
	verificationService := services.NewVerificationService(
		bookingAdapter,
		serviceAdapter,
		documentStore,
		eventBus,
	)

	// Initialize handlers
	departmentHandler := handlers.NewDepartmentHandler(departmentAdapter, serviceAdapter, slotService)
	bookingHandler := handlers.NewBookingHandler(bookingService, verificationService, metrics)
	officerHandler := handlers.NewOfficerHandler(bookingService, verificationService)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, cfg.Booking.SlotCacheTTLSeconds)
		log.Info().Msg("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		departmentHandler,
		bookingHandler,
		officerHandler,
		&cfg.Auth,
		cacheMiddleware,
		metrics,
		cfg.Storage.BasePath,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", serverAddr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during server shutdown")
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}

	log.Info().Msg("Server stopped")
}
