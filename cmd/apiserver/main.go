// API server entry point for the LaunchFast keyword-research service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BlockchainHB/launchfast-sub000/internal/application/research"
	"github.com/BlockchainHB/launchfast-sub000/internal/config"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/database/postgres"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/database/postgres/repositories"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/database/redis"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/messaging/kafka"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/provider/sellersprite"
	httpserver "github.com/BlockchainHB/launchfast-sub000/internal/interfaces/http"
	"github.com/BlockchainHB/launchfast-sub000/internal/interfaces/http/handlers"
)

const defaultConfigPath = "configs/config.yaml"

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	logger.Info("starting LaunchFast API server",
		logging.String("version", version),
		logging.Int("http_port", cfg.Server.Port),
		logging.String("mode", cfg.Server.Mode),
	)

	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────────────────────
	dsn := postgres.BuildDSN(cfg.Database)
	if err := postgres.RunMigrations(dsn, cfg.Database.MigrationPath); err != nil {
		logger.Fatal("database migrations failed", logging.Err(err))
	}
	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to PostgreSQL", logging.Err(err))
	}
	defer conn.Close()
	store := repositories.NewSessionRepository(conn.Pool(), logger)

	// ── Redis ─────────────────────────────────────────────────────────────────
	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("failed to connect to Redis", logging.Err(err))
	}
	defer redisClient.Close() //nolint:errcheck
	cache := redis.NewCache(redisClient, logger, redis.WithPrefix(cfg.Redis.KeyPrefix+":"))
	resultCache := redis.NewResultCache(cache, logger)

	// ── Kafka (optional) ──────────────────────────────────────────────────────
	var publisher research.EventPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := kafka.NewPublisher(cfg.Kafka, logger)
		if err != nil {
			logger.Fatal("failed to build Kafka publisher", logging.Err(err))
		}
		defer kafkaPublisher.Close() //nolint:errcheck
		publisher = kafkaPublisher
	}

	// ── Provider ──────────────────────────────────────────────────────────────
	provider, err := sellersprite.NewClient(sellersprite.Config{
		BaseURL:     cfg.Provider.BaseURL,
		APIKey:      cfg.Provider.APIKey,
		Marketplace: cfg.Provider.Marketplace,
		Timeout:     cfg.Provider.Timeout,
		MaxRetries:  cfg.Provider.MaxRetries,
	}, logger)
	if err != nil {
		logger.Fatal("failed to build SellerSprite client", logging.Err(err))
	}

	// ── Application service ───────────────────────────────────────────────────
	metrics := prometheus.New()
	service, err := research.NewService(research.ServiceConfig{
		Provider:  provider,
		Cache:     resultCache,
		Store:     store,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to build research service", logging.Err(err))
	}

	// ── HTTP ──────────────────────────────────────────────────────────────────
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Service:  service,
		Metrics:  metrics,
		Logger:   logger,
		Research: cfg.Research,
		Mode:     cfg.Server.Mode,
		Version:  version,
		Checkers: []handlers.HealthChecker{
			&postgresHealthAdapter{conn: conn},
			&redisHealthAdapter{client: redisClient},
		},
	})
	server := httpserver.NewServer(cfg.Server, router, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("HTTP server error", logging.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	logger.Info("server stopped")
}

// loadConfig reads the config file when it exists, otherwise falls back to a
// pure-environment configuration for containerised deployments.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}

// newLogger maps the service log configuration onto the logging package.
func newLogger(cfg config.LogConfig) (logging.Logger, error) {
	format := cfg.Format
	if format == "text" {
		format = "console"
	}
	var outputs []string
	if cfg.Output != "" {
		outputs = []string{cfg.Output}
	}
	return logging.NewLogger(logging.Config{
		Level:       cfg.Level,
		Format:      format,
		OutputPaths: outputs,
	})
}
