package config

import (
	"errors"
	"os"
	"time"
)

var ErrMissingDatabaseURL = errors.New("DB_URL is required")

type Config struct {
	Port        string
	DatabaseURL string
	AutoMigrate bool

	// JWT signing secret. The default only exists so local dev works out
	// of the box; set SECRET_KEY in any real deployment.
	SecretKey string

	// RedisAddr empty disables the model-catalog cache.
	RedisAddr  string
	CatalogTTL time.Duration

	// MetricsAddr empty disables the prometheus listener.
	MetricsAddr string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		DatabaseURL: os.Getenv("DB_URL"),
		AutoMigrate: os.Getenv("AUTO_MIGRATE") != "false",
		SecretKey:   getEnv("SECRET_KEY", "openchatllm-super-secret-key-12345"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		CatalogTTL:  10 * time.Minute,
		MetricsAddr: os.Getenv("METRICS_ADDR"),
	}

	if v := os.Getenv("CATALOG_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.New("CATALOG_TTL must be a duration like 10m")
		}
		cfg.CatalogTTL = ttl
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
