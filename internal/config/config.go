package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	Port        int    `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	JWTSecret         string        `envconfig:"AUTH_JWT_SECRET"`
	AdminEmail        string        `envconfig:"ADMIN_EMAIL"`
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH"`
	AdminTokenTTL     time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"8h"`

	DefaultMinStock    int           `envconfig:"DEFAULT_MIN_STOCK" default:"10"`
	CacheIdleTTL       time.Duration `envconfig:"CACHE_IDLE_TTL" default:"10m"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	AdminLoginRate     string        `envconfig:"ADMIN_LOGIN_RATE" default:"5-M"`
	WorkerConcurrency  int           `envconfig:"WORKER_CONCURRENCY" default:"5"`
}

// IsDevelopment reports whether the service runs outside production.
func (c Config) IsDevelopment() bool {
	return c.AppEnv != "production"
}

// AdminEnabled reports whether the admin console can log in.
func (c Config) AdminEnabled() bool {
	return c.AdminEmail != "" && c.AdminPasswordHash != ""
}

func Load() (Config, error) {
	envPath := filepath.Join(".", ".env")
	if _, err := os.Stat(envPath); err == nil {
		// Real environment variables win over .env values.
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", envPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("stat %s: %w", envPath, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}

	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	cfg.AdminPasswordHash = strings.TrimSpace(cfg.AdminPasswordHash)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required (environment variable or .env)")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required (environment variable or .env)")
	}
	if c.DefaultMinStock < 0 {
		return fmt.Errorf("invalid DEFAULT_MIN_STOCK: %d", c.DefaultMinStock)
	}
	if (c.AdminEmail == "") != (c.AdminPasswordHash == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD_HASH must be set together")
	}
	if c.CacheIdleTTL <= 0 {
		return fmt.Errorf("invalid CACHE_IDLE_TTL: %s", c.CacheIdleTTL)
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %d", c.RateLimitPerMinute)
	}
	if c.WorkerConcurrency <= 0 {
		return fmt.Errorf("invalid WORKER_CONCURRENCY: %d", c.WorkerConcurrency)
	}
	return nil
}
