// Package config loads server settings from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr           string        `env:"TODO_ADDR" envDefault:":8080"`
	Store          string        `env:"TODO_STORE" envDefault:"sqlite"`
	DBPath         string        `env:"TODO_DB_PATH" envDefault:"data/task_db"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout time.Duration `env:"TODO_REQUEST_TIMEOUT" envDefault:"15s"`

	AuthMode    string `env:"TODO_AUTH_MODE" envDefault:"none"`
	APIKey      string `env:"TODO_API_KEY"`
	BearerToken string `env:"TODO_BEARER_TOKEN"`

	RateLimitRPS   float64 `env:"TODO_RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int     `env:"TODO_RATE_LIMIT_BURST" envDefault:"5"`

	TraceExporter string `env:"TODO_TRACE_EXPORTER" envDefault:"none"`
	OTLPEndpoint  string `env:"TODO_OTLP_ENDPOINT"`
}

// Load parses the process environment and validates enumerated settings.
func Load() (Config, error) {
	return LoadFrom(env.ToMap(os.Environ()))
}

// LoadFrom is Load over an explicit variable map instead of os.Environ.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	switch cfg.Store {
	case "sqlite", "memory":
	default:
		return Config{}, fmt.Errorf("TODO_STORE: unknown store %q", cfg.Store)
	}
	if cfg.Store == "sqlite" && strings.TrimSpace(cfg.DBPath) == "" {
		return Config{}, fmt.Errorf("TODO_DB_PATH is required for the sqlite store")
	}
	return cfg, nil
}

// SlogLevel maps LogLevel onto slog levels, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
