package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"adscout/listingworker/api"
	"adscout/listingworker/config"
	"adscout/listingworker/helpers"
	"adscout/listingworker/internal/classify"
	"adscout/listingworker/internal/extract"
	"adscout/listingworker/internal/geo"
	"adscout/listingworker/internal/pipeline"
	"adscout/listingworker/internal/registry"
	"adscout/listingworker/internal/sched"
	"adscout/listingworker/internal/store"
	"adscout/listingworker/logger"
	"adscout/listingworker/services/publisher"
	"adscout/listingworker/services/throttle"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Int("workers", cfg.WorkerCount).
		Dur("request_delay", cfg.RequestDelay).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	orchestrator := pipeline.New(
		services.Store,
		services.Registry,
		helpers.NewFetcher(cfg.ScrapeProxyURL, cfg.ScrapeProxyKey),
		extract.NewEngine(cfg.SyntheticFallback),
		geo.NewResolver(cfg.GeocoderURL, cfg.GeocoderEmail),
		classify.New(cfg.ClassifierURL, cfg.ClassifierKey),
		services.Ledger,
		services.Publisher,
		pipeline.Options{
			WorkerCount:            cfg.WorkerCount,
			RequestDelay:           cfg.RequestDelay,
			AggressiveDelay:        cfg.AggressiveDelay,
			RunTimeout:             cfg.RunTimeout,
			MaxCandidatesPerSource: cfg.MaxCandidatesPerSource,
			HomeLatitude:           cfg.HomeLatitude,
			HomeLongitude:          cfg.HomeLongitude,
		},
	)

	// Optional internal cron for deployments without an external trigger
	if cfg.RunIntervalHours > 0 {
		scheduler := sched.New(orchestrator, cfg.RunIntervalHours)
		if err := scheduler.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
		defer scheduler.Stop()
	}

	// Start the HTTP surface
	server := api.New(orchestrator, services.Store, cfg.Environment)
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Run(":" + cfg.HTTPPort)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	case err := <-serverDone:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server exited with error")
		} else {
			log.Info().Msg("HTTP server exited normally")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Pool      *pgxpool.Pool
	Store     *store.Store
	Registry  *registry.Registry
	Ledger    throttle.Ledger
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg config.Config) (*Services, error) {
	services := &Services{}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	services.Pool = pool
	services.Store = store.New(pool)
	services.Registry = registry.New(pool)

	if err := services.Store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Connected to Postgres")

	// Cool-down ledger: shared via memcache when configured, in-process
	// otherwise
	if cfg.MemcacheAddr != "" {
		services.Ledger = throttle.NewMemcacheLedger(cfg.MemcacheAddr)
		logger.Info("Using memcache cool-down ledger at %s", cfg.MemcacheAddr)
	} else {
		services.Ledger = throttle.NewMemoryLedger()
		logger.Info("Using in-process cool-down ledger")
	}

	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamMaxLength,
	)
	if redisPublisher == nil {
		return nil, fmt.Errorf("failed to create redis publisher")
	}
	services.Publisher = redisPublisher

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	return services, nil
}
