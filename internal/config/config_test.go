package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddress)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 10, cfg.RedisPoolSize)
	assert.Equal(t, 5*time.Second, cfg.RedisTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.False(t, cfg.RedisEnabled())

	require.NoError(t, cfg.Validate(), "defaults must be a valid configuration")
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDRESS", "redis:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_TIMEOUT", "2s")
	t.Setenv("RATE_LIMIT_SWEEP_INTERVAL", "1m")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis:6379", cfg.RedisAddress)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 2*time.Second, cfg.RedisTimeout)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.True(t, cfg.RedisEnabled())
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("REDIS_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 5*time.Second, cfg.RedisTimeout)
}

func TestValidate(t *testing.T) {
	base := func() *Config { return Load() }

	t.Run("bad port", func(t *testing.T) {
		cfg := base()
		cfg.Port = "http"
		assert.Error(t, cfg.Validate())
	})

	t.Run("port out of range", func(t *testing.T) {
		cfg := base()
		cfg.Port = "70000"
		assert.Error(t, cfg.Validate())
	})

	t.Run("redis db out of range", func(t *testing.T) {
		cfg := base()
		cfg.RedisDB = 16
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive pool size", func(t *testing.T) {
		cfg := base()
		cfg.RedisPoolSize = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive sweep interval", func(t *testing.T) {
		cfg := base()
		cfg.SweepInterval = 0
		assert.Error(t, cfg.Validate())
	})
}
