// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

type Config struct {
	Port         int    `envconfig:"PORT" default:"3318"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DatabaseType string `envconfig:"DATABASE_TYPE" default:"sqlite"`

	SessionBackend string `envconfig:"SESSION_BACKEND" default:"memory"`
	RedisAddr      string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`
	BadgerDir      string `envconfig:"BADGER_DIR"`
	KeyPrefix      string `envconfig:"KEY_PREFIX" default:"lunchpoll:"`

	SeedCount        int           `envconfig:"SEED_COUNT" default:"5"`
	LoadMoreCount    int           `envconfig:"LOAD_MORE_COUNT" default:"1"`
	StoreTimeout     time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`
	DecayConcurrency int           `envconfig:"DECAY_CONCURRENCY" default:"4"`

	// SigningSecret enables chat-surface signature checks when set.
	SigningSecret string `envconfig:"SIGNING_SECRET"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
}

// ParseFlags builds the config from defaults, .env, the environment, and
// args, in increasing order of precedence.
func ParseFlags(args []string) (Config, error) {
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}

	flags := flag.NewFlagSet("lunch-poll", flag.ContinueOnError)

	flags.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	flags.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL")
	flags.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite, postgres or mysql)")

	flags.StringVar(&cfg.SessionBackend, "session", cfg.SessionBackend, "Session backend (memory, redis or badger)")
	flags.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address")
	flags.IntVar(&cfg.RedisDB, "redis-db", cfg.RedisDB, "Redis database number")
	flags.StringVar(&cfg.BadgerDir, "badger-dir", cfg.BadgerDir, "Badger directory (empty for in-memory)")
	flags.StringVar(&cfg.KeyPrefix, "key-prefix", cfg.KeyPrefix, "Session key prefix")

	flags.IntVar(&cfg.SeedCount, "seed", cfg.SeedCount, "Candidates offered when a poll starts")
	flags.IntVar(&cfg.LoadMoreCount, "load-more", cfg.LoadMoreCount, "Candidates added per load-more")
	flags.DurationVar(&cfg.StoreTimeout, "store-timeout", cfg.StoreTimeout, "Timeout for store calls")
	flags.IntVar(&cfg.DecayConcurrency, "decay-concurrency", cfg.DecayConcurrency, "Parallel score writes on close")

	// Secrets (prefer env variables, but allow CLI for dev)
	flags.StringVar(&cfg.SigningSecret, "signing-secret", cfg.SigningSecret, "Chat surface signing secret (prefer env)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.DatabaseType {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database type %q", c.DatabaseType)
	}
	switch c.SessionBackend {
	case BackendMemory, BackendBadger:
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("REDIS_ADDR required for the redis session backend")
		}
	default:
		return fmt.Errorf("unsupported session backend %q", c.SessionBackend)
	}
	if c.SeedCount < 0 || c.LoadMoreCount < 1 || c.DecayConcurrency < 1 {
		return errors.New("SEED_COUNT must be >= 0, LOAD_MORE_COUNT and DECAY_CONCURRENCY >= 1")
	}
	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}
