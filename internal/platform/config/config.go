package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates all runtime configuration. Values come from environment
// variables so main stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
	Telegram TelegramConfig
	Login    LoginConfig
}

// RedisConfig holds connection settings for the Redis-backed stores.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig selects the durable session store backend. An empty DSN
// means the Redis namespace is used as system of record.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig configures the audit event store. No brokers means audit
// events go to the log only.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// TelegramConfig carries the API credentials passed to the protocol client.
type TelegramConfig struct {
	APIID   int
	APIHash string
}

// LoginConfig bounds the QR login attempt lifecycle.
type LoginConfig struct {
	// PendingTTL covers the pending and scanned phases of an attempt.
	PendingTTL time.Duration
	// SuccessTTL is the grace window for the caller to read the final state.
	SuccessTTL time.Duration
	// URLScheme prefixes the generated login URL.
	URLScheme string
	// WatchInterval is the status notifier poll cadence.
	WatchInterval time.Duration
}

// FromEnv builds a Config from environment variables, applying development
// defaults for anything unset.
func FromEnv() Config {
	return Config{
		Addr:          getEnv("QR_GATEWAY_ADDR", ":8080"),
		JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Redis: RedisConfig{
			URL:          getEnv("REDIS_URL", "redis://localhost:6379"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_AUDIT_TOPIC", "qr-gateway.audit"),
		},
		Telegram: TelegramConfig{
			APIID:   getEnvInt("TG_API_ID", 0),
			APIHash: os.Getenv("TG_API_HASH"),
		},
		Login: LoginConfig{
			PendingTTL:    getEnvDuration("LOGIN_PENDING_TTL", 60*time.Second),
			SuccessTTL:    getEnvDuration("LOGIN_SUCCESS_TTL", 300*time.Second),
			URLScheme:     getEnv("LOGIN_URL_SCHEME", "tg"),
			WatchInterval: getEnvDuration("LOGIN_WATCH_INTERVAL", time.Second),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
