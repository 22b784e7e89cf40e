// Package config loads the example server's configuration from environment
// variables with sensible defaults and validates it before startup.
//
// Environment Variables:
//
//   - PORT: server port (default: 8080)
//   - ENVIRONMENT: "development" or "production" (default: development)
//   - LOG_LEVEL: logging level (default: info)
//
// Redis (optional — leaving REDIS_ADDRESS unset selects the in-process
// store, which is a valid configuration, not an error):
//
//   - REDIS_ADDRESS: Redis server address
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: connection pool size (default: 10)
//   - REDIS_TIMEOUT: per-check Redis deadline (default: 5s)
//
// Rate limiting:
//
//   - RATE_LIMIT_SWEEP_INTERVAL: local-store sweep cadence (default: 5m)
//   - RATE_LIMIT_PRESETS_FILE: optional YAML tiers file overriding the
//     built-in policy presets
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values for the example server.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	RedisAddress  string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
	RedisTimeout  time.Duration

	SweepInterval time.Duration
	PresetsFile   string
}

// Load reads the configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		RedisTimeout:  getEnvDuration("REDIS_TIMEOUT", 5*time.Second),

		SweepInterval: getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		PresetsFile:   getEnv("RATE_LIMIT_PRESETS_FILE", ""),
	}
}

// Validate ensures the configuration can start the server safely.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if c.RedisDB < 0 || c.RedisDB > 15 {
		return fmt.Errorf("REDIS_DB must be between 0 and 15, got %d", c.RedisDB)
	}
	if c.RedisPoolSize < 1 {
		return fmt.Errorf("REDIS_POOL_SIZE must be positive, got %d", c.RedisPoolSize)
	}
	if c.RedisTimeout <= 0 {
		return fmt.Errorf("REDIS_TIMEOUT must be positive, got %s", c.RedisTimeout)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("RATE_LIMIT_SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	return nil
}

// RedisEnabled reports whether a distributed store endpoint was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddress != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
