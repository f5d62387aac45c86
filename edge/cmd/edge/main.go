package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/telhawk-systems/telhawk-edge/common/events"
	"github.com/telhawk-systems/telhawk-edge/common/logging"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/config"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/dedup"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/engine"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/handlers"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/middleware"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/repository"
	"github.com/telhawk-systems/telhawk-edge/edge/internal/server"
	"github.com/telhawk-systems/telhawk-edge/edge/pkg/tokens"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("edge"))
	logging.SetDefault(logger)

	slog.Info("Starting edge ingest service",
		slog.Int("port", cfg.Server.Port),
		slog.String("dedup_backend", cfg.Dedup.Backend),
		slog.Float64("overload_probability", cfg.Overload.Probability),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Dedup cache: in-process by default, Redis for multi-instance
	// deployments.
	var cache dedup.Cache
	switch cfg.Dedup.Backend {
	case "redis":
		redisCache, err := dedup.NewRedisCache(cfg.Redis.URL, cfg.Dedup.TTL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis dedup backend: %v", err)
		}
		cache = redisCache
		log.Printf("Redis dedup backend enabled: %s", cfg.Redis.URL)
	default:
		cache = dedup.NewMemoryCache(cfg.Dedup.TTL)
	}
	defer cache.Close()

	// Accepted-readings store: memory unless Postgres is enabled.
	var store repository.Store = repository.NewInMemoryStore()
	if cfg.Database.Enabled {
		connString := cfg.Database.Postgres.ConnString()

		if err := runMigrations(connString, cfg.Database.MigrationsPath); err != nil {
			log.Fatalf("Failed to run database migrations: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pgStore, err := repository.NewPostgresStore(ctx, connString)
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		store = pgStore
		defer pgStore.Close()
		log.Printf("PostgreSQL storage enabled: %s:%d/%s",
			cfg.Database.Postgres.Host, cfg.Database.Postgres.Port, cfg.Database.Postgres.Database)
	}

	// Protocol event sink: structured logs always, NATS fan-out when
	// configured.
	var sink events.Sink = events.NewSlogSink(logger)
	if cfg.Events.NATSEnabled {
		natsCfg := events.DefaultNATSConfig()
		natsCfg.URL = cfg.Events.NATSURL
		natsCfg.Name = "telhawk-edge"
		natsSink, err := events.NewNATSSink(natsCfg, logger)
		if err != nil {
			log.Printf("WARNING: Failed to connect NATS event sink: %v", err)
			log.Println("Continuing with log-only protocol events")
		} else {
			sink = events.MultiSink{sink, natsSink}
			defer natsSink.Close()
			log.Printf("NATS event sink enabled: %s", cfg.Events.NATSURL)
		}
	}

	seed := cfg.Overload.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := engine.NewLockedRand(seed)

	decisionEngine := engine.New(cache, store, engine.Config{
		OverloadProbability: cfg.Overload.Probability,
	}, rng, sink, logger)

	handler := handlers.NewIngestHandler(decisionEngine, logger)

	// Optional bearer-token auth on the ingest endpoint.
	var auth *middleware.AuthMiddleware
	if cfg.Auth.Enabled {
		auth = middleware.NewAuthMiddleware(tokens.NewManager(cfg.Auth.Secret, cfg.Auth.TokenTTL))
		log.Println("Device token auth enabled on /ingest")
	}

	router := server.NewRouter(handler, auth)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Edge ingest service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down edge ingest service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", logging.Error(err))
	}

	slog.Info("Edge ingest service stopped")
}

func runMigrations(connString, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, connString)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
