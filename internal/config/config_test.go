package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("CACHE_TTL", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, 45*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "HS256", cfg.JWT.Alg)
	assert.Equal(t, time.Hour, cfg.JWT.ExpTime)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "@every 10m", cfg.Sweep.Schedule)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{name: "storage backend", mutate: func(c *AppConfig) { c.Storage.Backend = "s3" }},
		{name: "cache backend", mutate: func(c *AppConfig) { c.Cache.Backend = "memcached" }},
		{name: "jwt alg", mutate: func(c *AppConfig) { c.JWT.Alg = "none" }},
		{name: "jwt expiry", mutate: func(c *AppConfig) { c.JWT.ExpTime = 0 }},
		{name: "upload limit", mutate: func(c *AppConfig) { c.MaxUploadMB = 0 }},
		{name: "zero grace period", mutate: func(c *AppConfig) { c.Sweep.GracePeriod = 0 }},
		{name: "negative grace period", mutate: func(c *AppConfig) { c.Sweep.GracePeriod = -time.Minute }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &AppConfig{
				Storage:     StorageConfig{Backend: "local"},
				Cache:       CacheConfig{Backend: "none"},
				JWT:         JWTConfig{Secret: "s", Alg: "HS256", ExpTime: time.Hour},
				Sweep:       SweepConfig{Schedule: "@every 10m", GracePeriod: 5 * time.Minute},
				MaxUploadMB: 32,
			}
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_GracePeriodUnusedWhenSweepDisabled(t *testing.T) {
	cfg := &AppConfig{
		Storage:     StorageConfig{Backend: "local"},
		Cache:       CacheConfig{Backend: "none"},
		JWT:         JWTConfig{Secret: "s", Alg: "HS256", ExpTime: time.Hour},
		MaxUploadMB: 32,
	}
	assert.NoError(t, cfg.Validate())
}
