package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Security SecurityConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Audit    AuditConfig
}

// SecurityConfig holds the static secrets and session lifetimes.
type SecurityConfig struct {
	TokenSecret        string        `env:"TOKEN_SECRET, required"`
	FieldEncryptionKey string        `env:"FIELD_ENCRYPTION_KEY, required"`
	TokenIssuer        string        `env:"TOKEN_ISSUER, default=mediciel"`
	SessionTTL         time.Duration `env:"SESSION_TTL, default=1h"`
	RefreshTTL         time.Duration `env:"REFRESH_TTL, default=24h"`
	SessionLockTTL     time.Duration `env:"SESSION_LOCK_TTL, default=5s"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=clinic_records"`
}

// RedisConfig is optional: an empty address disables the session lock.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// PostgresConfig is optional: an empty DSN keeps audit events log-only.
type PostgresConfig struct {
	DSN          string `env:"POSTGRES_DSN"`
	MaxOpenConns int    `env:"POSTGRES_MAX_OPEN_CONNS, default=10"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

// IsDevelopment reports whether human-readable logs should be produced.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
// Missing secrets abort startup.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through an arbitrary lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
