package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_NAME", "store_rating")
	t.Setenv("JWT_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 24*time.Hour, cfg.AccessTTL())
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "localhost:6379", cfg.Redis.address())
	assert.Equal(t, "rating.submitted", cfg.Events.Queue)
	assert.False(t, cfg.Events.Enabled)
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_NAME", "store_rating")
	t.Setenv("JWT_SECRET", "placeholder")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEmptySecret(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestRateLimitNormalize(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "10s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.RateLimit.Capacity)
	assert.Equal(t, 50*time.Second, cfg.RateLimit.TTL)
}

func TestRedisAddrPrecedence(t *testing.T) {
	r := RedisConfig{Addr: "cache:6380", Host: "h", Port: "1"}
	assert.Equal(t, "cache:6380", r.address())
}
