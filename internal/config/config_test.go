package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/livechain-go/internal/viewport"
)

func envMap(m map[string]string) func(string) string {
	base := map[string]string{
		"POSTGRES_USER":     "livechain",
		"POSTGRES_PASSWORD": "secret",
		"POSTGRES_DB":       "livechain",
	}
	for k, v := range m {
		base[k] = v
	}
	return func(k string) string { return base[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, ServerConfig{Host: "localhost", Port: 8080}, cfg.Server)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.True(t, cfg.Postgres.MigrateOnStart)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 60*time.Second, cfg.Cache.PlacesTTL)
	assert.Equal(t, 15*time.Second, cfg.Cache.CollectionTTL)
	assert.Equal(t, 30, cfg.Acquire.RateLimit)
	assert.Equal(t, time.Minute, cfg.Acquire.RateWindow)
	assert.Equal(t, 2*time.Hour, cfg.Acquire.IdempotencyTTL)
	assert.Equal(t, "/static", cfg.Static.Prefix)
	assert.Equal(t, viewport.DefaultConfig(), cfg.Viewport)
	assert.Equal(t, LogConfig{Level: "info", Format: "json"}, cfg.Log)
}

func TestDSN(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"POSTGRES_PASSWORD": "p@ss word",
		"POSTGRES_HOST":     "db",
		"POSTGRES_SSLMODE":  "require",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres://livechain:p%40ss%20word@db:5432/livechain?sslmode=require", cfg.Postgres.DSN())
}

func TestOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"REDIS_ENABLED":            "false",
		"ACQUIRE_RATE_LIMIT":       "5",
		"ACQUIRE_RATE_WINDOW":      "10s",
		"VIEWPORT_LABEL_THRESHOLD": "0.05",
		"POSTGRES_MAX_CONNS":       "8",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 5, cfg.Acquire.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.Acquire.RateWindow)
	assert.Equal(t, 0.05, cfg.Viewport.LabelThreshold)
	assert.Equal(t, int32(8), cfg.Postgres.MaxConns)
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{name: "missing user", env: map[string]string{"POSTGRES_USER": ""}, msg: "missing POSTGRES_USER"},
		{name: "bad port", env: map[string]string{"SERVER_PORT": "http"}, msg: "invalid SERVER_PORT"},
		{name: "port out of range", env: map[string]string{"SERVER_PORT": "70000"}, msg: "SERVER_PORT must be between"},
		{name: "bad duration", env: map[string]string{"CACHE_PLACES_TTL": "soon"}, msg: "invalid CACHE_PLACES_TTL"},
		{name: "bad bool", env: map[string]string{"REDIS_ENABLED": "maybe"}, msg: "invalid REDIS_ENABLED"},
		{name: "inverted deltas", env: map[string]string{"VIEWPORT_MIN_DELTA": "0.2"}, msg: "viewport"},
		{name: "inverted sizes", env: map[string]string{"VIEWPORT_MIN_SIZE": "90"}, msg: "viewport"},
		{name: "zero rate limit", env: map[string]string{"ACQUIRE_RATE_LIMIT": "0"}, msg: "ACQUIRE_RATE_LIMIT"},
		{name: "bare static prefix", env: map[string]string{"STATIC_PREFIX": "/"}, msg: "STATIC_PREFIX"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromEnv(envMap(tc.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
