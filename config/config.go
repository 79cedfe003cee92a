// Package config loads the service configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vortex-fintech/go-cadastro/data/postgres"
	"github.com/vortex-fintech/go-cadastro/data/redis"
	"github.com/vortex-fintech/go-cadastro/messaging/kafka/franzgo"
)

type App struct {
	Name            string
	Env             string
	LogLevel        string
	HTTPAddr        string
	MetricsAddr     string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type Kafka struct {
	franzgo.Config
	Topic string
}

type CEP struct {
	BaseURL string
	Timeout time.Duration
}

type RateLimit struct {
	// Requests per Window per client IP; 0 disables the limiter.
	Requests int
	Window   time.Duration
}

type Config struct {
	App            App
	Postgres       postgres.DBConfig
	Redis          redis.Config
	Kafka          Kafka
	CEP            CEP
	RateLimit      RateLimit
	IdempotencyTTL time.Duration
}

// Load reads envFile when it exists (variables already set win) and then
// the environment. Every malformed value is reported, not just the first.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: %s: %w", envFile, err)
		}
	}

	var e env
	cfg := Config{
		App: App{
			Name:            e.str("APP_NAME", "go-cadastro"),
			Env:             e.str("APP_ENV", "development"),
			LogLevel:        e.str("LOG_LEVEL", "info"),
			HTTPAddr:        e.str("HTTP_ADDR", ":8080"),
			MetricsAddr:     e.str("METRICS_ADDR", ":9090"),
			RequestTimeout:  e.dur("HTTP_REQUEST_TIMEOUT", 15*time.Second),
			ShutdownTimeout: e.dur("SHUTDOWN_TIMEOUT", 20*time.Second),
		},
		Postgres: postgres.DBConfig{
			URL:             e.str("DATABASE_URL", ""),
			Host:            e.str("DB_HOST", "localhost"),
			Port:            e.str("DB_PORT", "5432"),
			User:            e.str("DB_USER", "cadastro"),
			Password:        e.str("DB_PASSWORD", ""),
			DBName:          e.str("DB_NAME", "cadastro"),
			SSLMode:         e.str("DB_SSLMODE", "disable"),
			ApplicationName: e.str("DB_APPLICATION_NAME", "go-cadastro"),
			MaxOpenConns:    e.int("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    e.int("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: e.dur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: e.dur("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Redis: redis.Config{
			Mode:         e.str("REDIS_MODE", redis.ModeSingle),
			Addr:         e.str("REDIS_ADDR", "localhost:6379"),
			Addrs:        e.list("REDIS_ADDRS"),
			MasterName:   e.str("REDIS_MASTER_NAME", ""),
			DB:           e.int("REDIS_DB", 0),
			Username:     e.str("REDIS_USERNAME", ""),
			Password:     e.str("REDIS_PASSWORD", ""),
			Namespace:    e.str("REDIS_NAMESPACE", redis.DefaultNamespace),
			DialTimeout:  e.dur("REDIS_DIAL_TIMEOUT", 3*time.Second),
			ReadTimeout:  e.dur("REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: e.dur("REDIS_WRITE_TIMEOUT", time.Second),
			PoolSize:     e.int("REDIS_POOL_SIZE", 0),
			MinIdleConns: e.int("REDIS_MIN_IDLE_CONNS", 0),
			TLSEnabled:   e.bool("REDIS_TLS", false),
		},
		Kafka: Kafka{
			Config: franzgo.Config{
				SeedBrokers:            e.list("KAFKA_BROKERS"),
				ClientID:               e.str("KAFKA_CLIENT_ID", franzgo.DefaultConfig().ClientID),
				ProduceTimeout:         e.dur("KAFKA_PRODUCE_TIMEOUT", franzgo.DefaultConfig().ProduceTimeout),
				AllowAutoTopicCreation: e.bool("KAFKA_AUTO_CREATE_TOPICS", false),
			},
			Topic: e.str("KAFKA_TOPIC", "cadastro.person-events"),
		},
		CEP: CEP{
			BaseURL: e.str("CEP_BASE_URL", "https://viacep.com.br/ws"),
			Timeout: e.dur("CEP_TIMEOUT", 10*time.Second),
		},
		RateLimit: RateLimit{
			Requests: e.int("RATE_LIMIT_REQUESTS", 120),
			Window:   e.dur("RATE_LIMIT_WINDOW", time.Minute),
		},
		IdempotencyTTL: e.dur("IDEMPOTENCY_TTL", 24*time.Hour),
	}
	if err := errors.Join(e.errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.App.HTTPAddr) == "" {
		errs = append(errs, errors.New("HTTP_ADDR is required"))
	}
	if c.App.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be > 0"))
	}
	if err := c.Postgres.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Redis.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Kafka.Enabled() && strings.TrimSpace(c.Kafka.Topic) == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.RateLimit.Requests < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must be >= 0"))
	}
	if c.RateLimit.Requests > 0 && c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be > 0"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// env reads typed variables and collects parse errors.
type env struct {
	errs []error
}

func (e *env) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *env) int(key string, def int) int {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *env) dur(key string, def time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (e *env) bool(key string, def bool) bool {
	v := e.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

// list splits a comma-separated value, dropping blanks.
func (e *env) list(key string) []string {
	var out []string
	for _, s := range strings.Split(e.str(key, ""), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
