package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Common is shared by every binary. JWTSecret must be identical across all
// services that issue or verify credentials.
type Common struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=taskhub"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// GatewayConfig configures cmd/gateway. Backend lists are comma separated
// and balanced round-robin.
type GatewayConfig struct {
	Common

	IdentityURLs []string `env:"GATEWAY_IDENTITY_URLS, default=http://localhost:8081"`
	TaskURLs     []string `env:"GATEWAY_TASK_URLS,     default=http://localhost:8082"`
}

// IdentityConfig configures cmd/identity.
type IdentityConfig struct {
	Common

	Mongo MongoConfig
}

// TaskConfig configures cmd/tasks.
type TaskConfig struct {
	Common

	IdentityURL   string        `env:"IDENTITY_SERVICE_URL,    default=http://localhost:8081"`
	LookupTimeout time.Duration `env:"IDENTITY_LOOKUP_TIMEOUT, default=2s"`

	Mongo MongoConfig
	Redis RedisConfig
}

// Load reads configuration from environment variables using go-envconfig.
// cfg must be a pointer to one of the config structs above.
func Load(ctx context.Context, cfg any) error {
	if err := envconfig.Process(ctx, cfg); err != nil {
		return fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return nil
}

// MustLoad is Load that panics on error, for use at process start.
func MustLoad[T any]() *T {
	var cfg T
	if err := Load(context.Background(), &cfg); err != nil {
		panic(err)
	}
	return &cfg
}
