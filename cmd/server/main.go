// Package main is the entry point for the Nomad Meetup Hub API server.
//
// The service matches digital nomads who are online right now and close
// enough to actually meet: presence heartbeats land in Redis, profiles
// live in PostgreSQL, and the matching engine ranks nearby candidates
// by interests, distance, schedule overlap, and activity level.
//
// The layout follows Clean Architecture and DDD:
//   - Domain: pure matching and presence logic, no external dependencies
//   - Application: query handlers orchestrating discovery and scoring
//   - Infrastructure: Redis presence tracker, Postgres profile store
//   - Interface: HTTP API
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nomad-hub/nomad-meetup-hub/config"
	"github.com/nomad-hub/nomad-meetup-hub/internal/application/query"
	"github.com/nomad-hub/nomad-meetup-hub/internal/domain/matching"
	"github.com/nomad-hub/nomad-meetup-hub/internal/infrastructure/persistence/postgres"
	"github.com/nomad-hub/nomad-meetup-hub/internal/infrastructure/persistence/redis"
	"github.com/nomad-hub/nomad-meetup-hub/internal/infrastructure/service"
	httpserver "github.com/nomad-hub/nomad-meetup-hub/internal/interface/http"
	"github.com/nomad-hub/nomad-meetup-hub/internal/interface/http/handlers"
	"github.com/nomad-hub/nomad-meetup-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	logOpts := logger.DefaultOptions()
	logOpts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	log := logger.New(logOpts)

	log.Info("starting Nomad Meetup Hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. POSTGRES (profile directory)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		log.Info("running database migrations")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		status, err := migrator.Status(ctx)
		if err != nil {
			log.Warn("failed to get migration status", logger.Err(err))
		} else {
			applied := 0
			for _, m := range status {
				if m.IsApplied {
					applied++
				}
			}
			log.Info("migrations completed",
				logger.Int("applied", applied),
				logger.Int("total", len(status)),
			)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (presence tracking)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to Redis")

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = redis.NewClientFromURL(ctx, cfg.Redis.URL)
	} else {
		redisClient, err = redis.NewClient(ctx, redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer func() {
		log.Info("closing Redis connection")
		_ = redisClient.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. INFRASTRUCTURE
	// ─────────────────────────────────────────────────────────────────────────
	tracker := redis.NewPresenceTracker(redisClient)
	profileRepo := postgres.NewProfileRepository(dbConn)

	var discoveryOpts []service.Option
	if cfg.Features.IsEnabled(config.FeatureStrictDiscovery) {
		discoveryOpts = append(discoveryOpts, service.WithStrictPresence())
	}
	directory := service.NewDiscoveryService(tracker, profileRepo, log, discoveryOpts...)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	parallel := cfg.Matching.ParallelScoring ||
		cfg.Features.IsEnabled(config.FeatureParallelScoring)

	engine := matching.NewEngine(matching.Config{
		ParallelScoring:   parallel,
		ParallelThreshold: cfg.Matching.ParallelThreshold,
		MaxWorkers:        cfg.Matching.MaxWorkers,
	})

	findMatches := query.NewFindMatchesHandler(directory, engine, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("postgres", handlers.NewPingCheck(dbConn))
	health.AddCheck("redis", handlers.NewPingCheck(redisClient))

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.DefaultRadiusKm = cfg.Matching.DefaultRadiusKm
	httpConfig.APIKeyHeader = cfg.HTTP.APIKeyHeader
	httpConfig.APIKeyHashes = cfg.HTTP.APIKeyHashes
	httpConfig.EnableMetrics = cfg.Observability.MetricsEnabled

	var metrics *httpserver.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = httpserver.NewMetrics()
	}

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		FindMatchesHandler: findMatches,
		Tracker:            tracker,
		ProfileRepo:        profileRepo,
		Logger:             log,
		HealthChecker:      health,
		Metrics:            metrics,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 9. START + GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", logger.String("address", server.Address()))
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("Nomad Meetup Hub is running",
		logger.String("address", server.Address()),
		logger.Bool("metrics", cfg.Observability.MetricsEnabled),
		logger.Bool("auth", len(cfg.HTTP.APIKeyHashes) > 0),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown",
		logger.String("timeout", cfg.App.ShutdownTimeout.String()),
	)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed")
	return nil
}
