package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plantbot/internal/cache"
	"plantbot/internal/config"
	"plantbot/internal/convo"
	"plantbot/internal/gardener"
	"plantbot/internal/httpserver"
	"plantbot/internal/logging"
	"plantbot/internal/metrics"
	"plantbot/internal/reminder"
	"plantbot/internal/repo"
	"plantbot/internal/species"
	"plantbot/internal/tg"
	"plantbot/migrations"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel)
	logger.Info("starting plant care bot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	var repository repo.Repository
	if cfg.DatabaseURL != "" {
		repository, err = repo.NewPostgres(ctx, cfg.DatabaseURL, logger)
	} else {
		repository, err = repo.NewSQLite(ctx, cfg.SQLitePath, logger)
	}
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer repository.Close()

	if err := repository.RunMigrations(ctx, migrations.Files); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrated")

	var redisClient *cache.Redis
	if cfg.RedisAddr != "" {
		redisClient = cache.New(cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
		}, logger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("failed closing redis", "error", err)
			}
		}()
		if err := redisClient.Ping(ctx); err != nil {
			logger.Warn("redis ping failed", "error", err)
		}
	}

	var speciesClient *species.Client
	if cfg.SpeciesAPIKey != "" {
		speciesClient = species.New(species.Config{
			BaseURL: cfg.SpeciesBaseURL,
			APIKey:  cfg.SpeciesAPIKey,
			Timeout: cfg.SpeciesTimeout,
		}, logger, metricRegistry, redisClient)
	}

	var gardenerClient *gardener.Client
	if cfg.GardenerCredentials != "" {
		gardenerClient = gardener.New(gardener.Config{
			AuthURL:     cfg.GardenerAuthURL,
			BaseURL:     cfg.GardenerBaseURL,
			Credentials: cfg.GardenerCredentials,
			Scope:       cfg.GardenerScope,
			Model:       cfg.GardenerModel,
			Timeout:     cfg.GardenerTimeout,
		}, logger, metricRegistry)
	}

	engine := convo.New(repository, logger)

	tgClient, err := tg.New(tg.Config{
		Token:    cfg.TelegramToken,
		Species:  speciesClient,
		Gardener: gardenerClient,
		Metrics:  metricRegistry,
	}, repository, engine, logger)
	if err != nil {
		return fmt.Errorf("init telegram client: %w", err)
	}

	dispatcher := reminder.New(repository, tgClient, metricRegistry, logger, cfg.ScanInterval)
	tgClient.SetDispatcher(dispatcher)

	if err := dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("start dispatcher: %w", err)
	}
	defer func() {
		if err := dispatcher.Stop(); err != nil {
			logger.Warn("failed stopping dispatcher", "error", err)
		}
	}()

	go func() {
		if err := tgClient.Start(ctx); err != nil {
			logger.Error("telegram client stopped", "error", err)
			stop()
		}
	}()

	httpSrv := httpserver.New(cfg.HTTPListenAddr, logger, repository, dispatcher)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return nil
}
