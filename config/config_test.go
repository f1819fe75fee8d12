package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	assert.Equal(t, ":8080", cfg.Server.HTTPPort)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "local", cfg.Lock.Driver)
	assert.Equal(t, 3, cfg.Stock.ApplyRetries)
	assert.Equal(t, 2*time.Second, cfg.Lock.WaitTimeout)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Empty(t, cfg.Reconcile.Schedule)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("LOCK_DRIVER", "redis")
	t.Setenv("LOCK_RETRY_DELAY_MS", "25")
	t.Setenv("STOCK_APPLY_RETRIES", "7")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("POSTGRES_AUTO_MIGRATE", "false")

	cfg := LoadEnv()

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "redis", cfg.Lock.Driver)
	assert.Equal(t, 25*time.Millisecond, cfg.Lock.RetryDelay)
	assert.Equal(t, 7, cfg.Stock.ApplyRetries)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Postgres.AutoMigrate)
}

func TestLoadEnvIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("STOCK_APPLY_RETRIES", "many")
	t.Setenv("LOGGER_DISABLE_CALLER", "maybe")

	cfg := LoadEnv()

	assert.Equal(t, 3, cfg.Stock.ApplyRetries)
	assert.False(t, cfg.Logger.DisableCaller)
}
