// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session store backends selectable through SESSION_STORE.
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreRedis    = "redis"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN. Required for the postgres session store and for audit persistence.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// TokenExpireSeconds is the session lifetime in seconds; must be > 0.
	TokenExpireSeconds int `mapstructure:"TOKEN_EXPIRE_SECONDS"`
	// TokenJWTSecret is the base64-encoded HMAC secret used to sign tokens. Never logged.
	TokenJWTSecret string `mapstructure:"TOKEN_JWT_SECRET"`

	// LoginAPIKey, when set, must be sent as x-login-key metadata on SessionService/Login.
	// Login trusts the caller to have verified credentials already. Never logged.
	LoginAPIKey string `mapstructure:"LOGIN_API_KEY"`

	// SessionStore selects the session repository: postgres, mongo or redis.
	SessionStore string `mapstructure:"SESSION_STORE"`
	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// KafkaBrokers is a comma-separated list of brokers; when set, audit events are also published to AuditKafkaTopic.
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint    string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure    bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// PurgeInterval is how often the worker deletes expired sessions (e.g. "5m").
	PurgeInterval string `mapstructure:"PURGE_INTERVAL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("TOKEN_EXPIRE_SECONDS", 3600)
	v.SetDefault("TOKEN_JWT_SECRET", "")
	v.SetDefault("LOGIN_API_KEY", "")
	v.SetDefault("SESSION_STORE", StorePostgres)
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "session_token")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "session-audit")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "session-token-service")
	v.SetDefault("PURGE_INTERVAL", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.GRPCAddr == "" {
		return nil, errors.New("config: GRPC_ADDR must be set")
	}
	if cfg.TokenExpireSeconds <= 0 {
		return nil, errors.New("config: TOKEN_EXPIRE_SECONDS must be greater than 0")
	}
	if strings.TrimSpace(cfg.TokenJWTSecret) == "" {
		return nil, errors.New("config: TOKEN_JWT_SECRET must be set")
	}

	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))
	switch cfg.SessionStore {
	case StorePostgres:
	case StoreMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("config: MONGO_URI must be set when SESSION_STORE=mongo")
		}
	case StoreRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("config: REDIS_ADDR must be set when SESSION_STORE=redis")
		}
	default:
		return nil, errors.New("config: SESSION_STORE must be one of postgres, mongo, redis")
	}

	return &cfg, nil
}

// TokenTTL returns the configured session lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenExpireSeconds) * time.Second
}

// PurgeEvery parses PurgeInterval as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) PurgeEvery() time.Duration {
	d, err := time.ParseDuration(c.PurgeInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list means audit events are not published to Kafka.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NewLogger builds the process logger from LogLevel and LogFormat, writing to stdout.
func (c *Config) NewLogger() *slog.Logger {
	return c.newLogger(os.Stdout)
}

func (c *Config) newLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if strings.EqualFold(c.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
