package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

// Config is the environment-style server configuration. A .env file in the
// working directory is honored but optional.
type Config struct {
	Addr          string
	AllowedOrigin string
	TickInterval  time.Duration
	MaxPlayers    int
	CodeLength    int
}

const (
	defaultAddr       = ":8080"
	defaultTickMs     = 100
	defaultMaxPlayers = 8
	defaultCodeLength = 6
)

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:          envOr("PROSET_ADDR", defaultAddr),
		AllowedOrigin: os.Getenv("PROSET_ALLOWED_ORIGIN"),
	}

	var err error
	tickMs := intEnv("PROSET_TICK_MS", defaultTickMs, &err)
	cfg.TickInterval = time.Duration(tickMs) * time.Millisecond
	cfg.MaxPlayers = intEnv("PROSET_MAX_PLAYERS", defaultMaxPlayers, &err)
	cfg.CodeLength = intEnv("PROSET_CODE_LENGTH", defaultCodeLength, &err)

	if tickMs <= 0 {
		err = multierr.Append(err, fmt.Errorf("PROSET_TICK_MS must be positive, got %d", tickMs))
	}
	if cfg.MaxPlayers < 1 {
		err = multierr.Append(err, fmt.Errorf("PROSET_MAX_PLAYERS must be at least 1, got %d", cfg.MaxPlayers))
	}
	if cfg.CodeLength < 4 {
		err = multierr.Append(err, fmt.Errorf("PROSET_CODE_LENGTH must be at least 4, got %d", cfg.CodeLength))
	}
	return cfg, err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int, errs *error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = multierr.Append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}
