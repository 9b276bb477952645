// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries all runtime settings.
type Config struct {
	LogLevel      string
	TelegramToken string

	// DatabaseURL selects the Postgres backend when set; otherwise the
	// file-based SQLite backend at SQLitePath is used.
	DatabaseURL string
	SQLitePath  string

	// ScanInterval is the reminder dispatcher period.
	ScanInterval time.Duration

	HTTPListenAddr   string
	MetricsNamespace string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTLS      bool

	SpeciesBaseURL string
	SpeciesAPIKey  string
	SpeciesTimeout time.Duration

	GardenerAuthURL     string
	GardenerBaseURL     string
	GardenerCredentials string
	GardenerScope       string
	GardenerModel       string
	GardenerTimeout     time.Duration
}

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		LogLevel:            envOr("LOG_LEVEL", "info"),
		TelegramToken:       strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:          envOr("SQLITE_PATH", "plants.db"),
		HTTPListenAddr:      envOr("HTTP_LISTEN_ADDR", ":8080"),
		MetricsNamespace:    envOr("METRICS_NAMESPACE", "plantbot"),
		RedisAddr:           strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		SpeciesBaseURL:      strings.TrimSpace(os.Getenv("SPECIES_BASE_URL")),
		SpeciesAPIKey:       strings.TrimSpace(os.Getenv("SPECIES_API_KEY")),
		GardenerAuthURL:     strings.TrimSpace(os.Getenv("GARDENER_AUTH_URL")),
		GardenerBaseURL:     strings.TrimSpace(os.Getenv("GARDENER_BASE_URL")),
		GardenerCredentials: strings.TrimSpace(os.Getenv("GARDENER_CREDENTIALS")),
		GardenerScope:       envOr("GARDENER_SCOPE", "GIGACHAT_API_PERS"),
		GardenerModel:       envOr("GARDENER_MODEL", "GigaChat"),
	}

	if cfg.TelegramToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	var err error
	if cfg.ScanInterval, err = envDuration("SCAN_INTERVAL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.SpeciesTimeout, err = envDuration("SPECIES_TIMEOUT", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.GardenerTimeout, err = envDuration("GARDENER_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	cfg.RedisTLS = envBool("REDIS_TLS")

	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes"
}
