package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"JWT_SECRET": "s3cret",
		"DB_USER":    "app",
	})
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 60, cfg.SanctionDays)
	assert.Equal(t, 2, cfg.DailyCap)
	assert.Equal(t, 3, cfg.WeeklyCap)
	assert.Equal(t, 5*time.Second, cfg.LockTTL)
	assert.Equal(t, time.Hour, cfg.AccessTTL())
	assert.True(t, cfg.Migrate)
}

func TestLoadFromSQLite(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"JWT_SECRET":    "s3cret",
		"DB_DRIVER":     "sqlite",
		"DB_PATH":       "/tmp/rooms.db",
		"SANCTION_DAYS": "30",
		"LOCK_TTL":      "2s",
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/rooms.db", cfg.DBPath)
	assert.Equal(t, 30, cfg.SanctionDays)
	assert.Equal(t, 2*time.Second, cfg.LockTTL)
}

func TestLoadFromErrors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"missing secret", map[string]string{"DB_USER": "app"}},
		{"mysql without user", map[string]string{"JWT_SECRET": "x"}},
		{"unknown driver", map[string]string{"JWT_SECRET": "x", "DB_DRIVER": "postgres"}},
		{"bad cap", map[string]string{"JWT_SECRET": "x", "DB_USER": "app", "DAILY_CAP": "0"}},
		{"bad number", map[string]string{"JWT_SECRET": "x", "DB_USER": "app", "WEEKLY_CAP": "three"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.vars)
			assert.Error(t, err)
		})
	}
}

func TestLoadCacheConfig(t *testing.T) {
	cfg := loadCacheConfig(env.Options{Environment: map[string]string{
		"CACHE_METHODS": "get, head",
		"CACHE_TTL":     "1m",
	}})
	assert.True(t, cfg.Enabled)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
	assert.Equal(t, time.Minute, cfg.TTL)
	assert.Equal(t, "route_query", cfg.KeyStrategy)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	cfg := loadRateLimitConfig(env.Options{Environment: map[string]string{
		"RATE_LIMIT_CAPACITY":        "0",
		"RATE_LIMIT_REFILL_INTERVAL": "1m",
		"RATE_LIMIT_TTL":             "1m",
	}})
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
}

func TestRedisConfigAddress(t *testing.T) {
	assert.Equal(t, "localhost:6379", RedisConfig{Addr: "localhost:6379"}.Address())
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: "6380", Addr: "localhost:6379"}.Address())
}
