// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/thearyanahmed/newsletter/internal/model"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Email providers.
const (
	EmailProviderHTTP = "http"
	EmailProviderSES  = "ses"
)

// Config holds all application configuration.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8000"`

	// BaseURL is the public address confirmation links point at.
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8000"`

	// Storage
	StoreDriver      string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL      string `env:"DATABASE_URL"`
	DatabaseMaxConns int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	DatabaseMinConns int32  `env:"DATABASE_MIN_CONNS" envDefault:"2"`

	// Cache (Redis). Optional; enables the publish lock.
	RedisURL string `env:"REDIS_URL"`

	// Email delivery
	EmailProvider    string        `env:"EMAIL_PROVIDER" envDefault:"http"`
	EmailBaseURL     string        `env:"EMAIL_BASE_URL"`
	EmailSender      string        `env:"EMAIL_SENDER,required"`
	EmailAuthToken   string        `env:"EMAIL_AUTH_TOKEN"`
	EmailTimeout     time.Duration `env:"EMAIL_TIMEOUT" envDefault:"10s"`
	EmailDialTimeout time.Duration `env:"EMAIL_DIAL_TIMEOUT" envDefault:"2s"`

	SESRegion          string `env:"SES_REGION" envDefault:"us-east-1"`
	SESAccessKeyID     string `env:"SES_ACCESS_KEY_ID"`
	SESSecretAccessKey string `env:"SES_SECRET_ACCESS_KEY"`
	SESEndpoint        string `env:"SES_ENDPOINT"`

	// Publishing
	PublisherKeyHash string        `env:"PUBLISHER_KEY_HASH"`
	PublishLockTTL   time.Duration `env:"PUBLISH_LOCK_TTL" envDefault:"10m"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts. Writes cover a full publish run.
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Comma-separated list of allowed origins (e.g., "https://example.com,https://blog.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// SenderEmail returns the validated sender address.
func (c *Config) SenderEmail() (model.SubscriberEmail, error) {
	return model.ParseSubscriberEmail(c.EmailSender)
}

// Validate enforces rules that span several variables.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_DRIVER=postgres"))
		}
		if c.DatabaseMinConns > c.DatabaseMaxConns {
			errs = append(errs, errors.New("DATABASE_MIN_CONNS must not exceed DATABASE_MAX_CONNS"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.EmailProvider {
	case EmailProviderHTTP:
		if c.EmailBaseURL == "" {
			errs = append(errs, errors.New("EMAIL_BASE_URL is required when EMAIL_PROVIDER=http"))
		}
	case EmailProviderSES:
		if c.SESRegion == "" {
			errs = append(errs, errors.New("SES_REGION is required when EMAIL_PROVIDER=ses"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider))
	}

	if _, err := c.SenderEmail(); err != nil {
		errs = append(errs, fmt.Errorf("EMAIL_SENDER: %w", err))
	}

	if c.EmailTimeout <= 0 {
		errs = append(errs, errors.New("EMAIL_TIMEOUT must be positive"))
	}

	if c.BaseURL == "" {
		errs = append(errs, errors.New("BASE_URL must not be empty"))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
