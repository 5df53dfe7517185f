// Package config loads service configuration from environment variables.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`

	// TokenTTL bounds the lifetime of issued access tokens and their
	// session registrations.
	TokenTTL time.Duration `env:"TOKEN_TTL, default=30m"`

	Mongo  MongoConfig
	Redis  RedisConfig
	Worker WorkerConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=staff_registry"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD, default="`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type WorkerConfig struct {
	Concurrency int `env:"WORKER_CONCURRENCY, default=5"`

	// PurgeSchedule is the cron expression for the expired reset token
	// sweep. The default runs hourly.
	PurgeSchedule string `env:"PURGE_SCHEDULE, default=0 * * * *"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
