package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port        string `env:"PORT"        envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevelRaw string `env:"LOG_LEVEL"   envDefault:"info"`
	// LogLevel is parsed from LogLevelRaw by Load.
	LogLevel slog.Level

	RedisURL string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	DataDir  string        `env:"DATA_DIR"  envDefault:"./data"`
	SaveTTL  time.Duration `env:"SAVE_TTL"  envDefault:"0s"`

	DefaultScene string `env:"DEFAULT_SCENE" envDefault:"Amy1"`
	HandSize     int    `env:"HAND_SIZE"     envDefault:"3"`
	// ShuffleSeed makes deck shuffles repeatable; 0 shuffles randomly.
	ShuffleSeed uint64 `env:"SHUFFLE_SEED" envDefault:"0"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.LogLevelRaw)
	if cfg.HandSize < 0 {
		return nil, fmt.Errorf("HAND_SIZE must not be negative, got %d", cfg.HandSize)
	}
	return &cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
