package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, 20*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, "cadastro", cfg.Postgres.DBName)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 120, cfg.RateLimit.Requests)
	assert.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/cadastro")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.App.HTTPAddr)
	assert.Equal(t, "postgres://u:p@db:5432/cadastro", cfg.Postgres.DSN())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.SeedBrokers)
	assert.True(t, cfg.Redis.TLSEnabled)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CEP_TIMEOUT=3s\nLOG_LEVEL=debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")
	t.Cleanup(func() { _ = os.Unsetenv("CEP_TIMEOUT") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.CEP.Timeout)
	assert.Equal(t, "warn", cfg.App.LogLevel, "existing variables win")
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_ReportsEveryBadValue(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "ten")
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_MAX_OPEN_CONNS")
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{name: "kafka topic", mut: func(c *Config) { c.Kafka.SeedBrokers = []string{"k:9092"}; c.Kafka.Topic = "" }, want: "KAFKA_TOPIC"},
		{name: "rate window", mut: func(c *Config) { c.RateLimit.Window = 0 }, want: "RATE_LIMIT_WINDOW"},
		{name: "shutdown", mut: func(c *Config) { c.App.ShutdownTimeout = 0 }, want: "SHUTDOWN_TIMEOUT"},
		{name: "redis", mut: func(c *Config) { c.Redis.Mode = "ring" }, want: "unsupported mode"},
		{name: "postgres", mut: func(c *Config) { c.Postgres.Host = "" }, want: "host is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mut(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
