package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string `env:"DB_HOST"`
	Port               string `env:"DB_PORT" envDefault:"5432"`
	User               string `env:"DB_USER"`
	Password           string `env:"DB_PASSWORD"`
	Name               string `env:"DB_NAME"`
	SSLMode            string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns       int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns       int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetimeSec int    `env:"DB_CONN_MAX_LIFETIME_SEC" envDefault:"300"`
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET"`
	UseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
}

// StorageConfig selects the file storage backend.
type StorageConfig struct {
	Backend        string        `env:"STORAGE_BACKEND" envDefault:"local"`
	FilePath       string        `env:"FILE_STORAGE_PATH" envDefault:"./data/files"`
	DownloadPath   string        `env:"DOWNLOAD_PATH" envDefault:"./data/downloads"`
	DownloadExpiry time.Duration `env:"DOWNLOAD_URL_EXPIRY" envDefault:"15m"`
}

// JWTConfig holds token signing settings. The secret has no default.
type JWTConfig struct {
	Secret  string        `env:"JWT_SECRET,required,notEmpty"`
	Alg     string        `env:"JWT_ALG" envDefault:"HS256"`
	ExpTime time.Duration `env:"JWT_EXP_TIME" envDefault:"1h"`
}

// CacheConfig controls the permission list cache.
type CacheConfig struct {
	Backend       string        `env:"CACHE_BACKEND" envDefault:"memory"`
	TTL           time.Duration `env:"CACHE_TTL" envDefault:"30s"`
	Size          int           `env:"CACHE_SIZE" envDefault:"1024"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
}

// RateLimitConfig bounds requests per client IP on the auth endpoints.
type RateLimitConfig struct {
	RPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"5"`
	Burst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`
}

// SweepConfig schedules the orphan document sweeper. An empty schedule disables it.
type SweepConfig struct {
	Schedule    string        `env:"ORPHAN_SWEEP_SCHEDULE" envDefault:"@every 10m"`
	GracePeriod time.Duration `env:"ORPHAN_GRACE_PERIOD" envDefault:"5m"`
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost         string        `env:"APP_HOST" envDefault:"localhost:8080"`
	Port            string        `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	MaxUploadMB     int           `env:"MAX_UPLOAD_MB" envDefault:"32"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Database        DatabaseConfig
	Storage         StorageConfig
	MinIO           MinIOConfig
	JWT             JWTConfig
	Cache           CacheConfig
	RateLimit       RateLimitConfig
	Sweep           SweepConfig
}

// Load reads configuration from environment variables.
// A .env file is loaded when present; real environment variables take precedence.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the enumerated settings.
func (c *AppConfig) Validate() error {
	switch c.Storage.Backend {
	case "local", "minio":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be local or minio, got %q", c.Storage.Backend)
	}
	switch c.Cache.Backend {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("CACHE_BACKEND must be none, memory or redis, got %q", c.Cache.Backend)
	}
	switch c.JWT.Alg {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("JWT_ALG must be HS256, HS384 or HS512, got %q", c.JWT.Alg)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.JWT.ExpTime <= 0 {
		return fmt.Errorf("JWT_EXP_TIME must be positive")
	}
	if c.Sweep.Schedule != "" && c.Sweep.GracePeriod <= 0 {
		return fmt.Errorf("ORPHAN_GRACE_PERIOD must be positive when ORPHAN_SWEEP_SCHEDULE is set, got %s", c.Sweep.GracePeriod)
	}
	return nil
}
