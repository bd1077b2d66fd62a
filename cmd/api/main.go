// Package main is the entrypoint for the newsletter API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/thearyanahmed/newsletter/internal/cache"
	"github.com/thearyanahmed/newsletter/internal/config"
	"github.com/thearyanahmed/newsletter/internal/email"
	"github.com/thearyanahmed/newsletter/internal/handler"
	"github.com/thearyanahmed/newsletter/internal/metrics"
	"github.com/thearyanahmed/newsletter/internal/repository"
	"github.com/thearyanahmed/newsletter/internal/server"
	"github.com/thearyanahmed/newsletter/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", sanitizeError(err, cfg.DatabaseURL, cfg.RedisURL))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	recorder := metrics.NewPrometheus()

	store, database, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	sender, err := newSender(ctx, cfg, recorder)
	if err != nil {
		closeStore()
		return err
	}

	// The publish lock is optional; without Redis publishes are not serialised.
	var (
		locker      service.Locker
		cacheHealth handler.HealthChecker
		cacheClient *cache.Cache
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			closeStore()
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			return fmt.Errorf("connect redis: %w", err)
		}
		locker = cacheClient
		cacheHealth = cacheClient
		logger.Info("connected to Redis")
	} else {
		logger.Warn("REDIS_URL not set; concurrent publishes are not serialised")
	}

	subscriptions := service.NewSubscriptionService(store, sender, cfg.BaseURL, logger, recorder)
	newsletters := service.NewNewsletterService(store, sender, locker, cfg.PublishLockTTL, logger, recorder)

	if cfg.PublisherKeyHash == "" {
		logger.Warn("PUBLISHER_KEY_HASH not set; POST /newsletters is open")
	}

	r := server.NewRouter(server.RouterConfig{
		Logger:             logger,
		Subscriptions:      subscriptions,
		Newsletters:        newsletters,
		Database:           database,
		Cache:              cacheHealth,
		Metrics:            recorder.Handler(),
		PublisherKeyHash:   cfg.PublisherKeyHash,
		IsDevelopment:      cfg.IsDevelopment(),
		AllowedOrigins:     cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("store", func(context.Context) error {
		closeStore()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"base_url", cfg.BaseURL,
		"env", cfg.AppEnv,
		"store_driver", cfg.StoreDriver,
		"email_provider", cfg.EmailProvider,
	)

	return srv.Run(ctx)
}

// openStore returns the subscriber store, its readiness probe and a close func.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.SubscriberStore, handler.HealthChecker, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		store := repository.NewMemoryStore()
		return store, store, func() {}, nil
	}

	repo, err := repository.New(ctx, repository.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info("connected to database")

	return repo, repo, repo.Close, nil
}

// newSender builds the configured email provider wrapped with timing metrics.
func newSender(ctx context.Context, cfg *config.Config, recorder metrics.Recorder) (email.Sender, error) {
	sender, err := cfg.SenderEmail()
	if err != nil {
		return nil, fmt.Errorf("sender email: %w", err)
	}

	switch cfg.EmailProvider {
	case config.EmailProviderSES:
		client, err := email.NewSESClient(ctx, email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
			Endpoint:        cfg.SESEndpoint,
			Sender:          sender,
			Timeout:         cfg.EmailTimeout,
			DialTimeout:     cfg.EmailDialTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		return email.Instrument(client, config.EmailProviderSES, recorder), nil
	default:
		client := email.NewClient(email.ClientConfig{
			BaseURL:     cfg.EmailBaseURL,
			Sender:      sender,
			AuthToken:   cfg.EmailAuthToken,
			Timeout:     cfg.EmailTimeout,
			DialTimeout: cfg.EmailDialTimeout,
		})
		return email.Instrument(client, config.EmailProviderHTTP, recorder), nil
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "newsletter")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
