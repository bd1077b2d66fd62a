package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/thearyanahmed/newsletter/internal/handler"
	"github.com/thearyanahmed/newsletter/internal/middleware"
	"github.com/thearyanahmed/newsletter/internal/service"
)

// RouterConfig carries everything the HTTP surface depends on.
type RouterConfig struct {
	Logger        *slog.Logger
	Subscriptions *service.SubscriptionService
	Newsletters   *service.NewsletterService

	// Database and Cache feed /readyz. Cache may be nil.
	Database handler.HealthChecker
	Cache    handler.HealthChecker

	// Metrics serves /metrics when set.
	Metrics http.Handler

	PublisherKeyHash string
	AuthMinDuration  time.Duration

	IsDevelopment      bool
	AllowedOrigins     []string
	MaxRequestBodySize int64
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	h := handler.New()
	healthHandler := handler.NewHealthHandler(cfg.Database, cfg.Cache, cfg.Logger)
	subscriptionHandler := handler.NewSubscriptionHandler(cfg.Subscriptions, cfg.Logger)
	newsletterHandler := handler.NewNewsletterHandler(cfg.Newsletters, cfg.Logger)

	maxBody := cfg.MaxRequestBodySize
	if maxBody <= 0 {
		maxBody = middleware.DefaultSecurityConfig().MaxRequestBodySize
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger, cfg.IsDevelopment))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment,
		MaxRequestBodySize: maxBody,
	}))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health endpoints
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/health_check", healthHandler.HealthCheck)
	r.Get("/readyz", healthHandler.Readyz)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.MaxBodySize(maxBody))

		r.Post("/subscriptions", subscriptionHandler.Subscribe)
		r.Get("/subscriptions/confirm", subscriptionHandler.Confirm)

		r.With(middleware.PublisherAuth(middleware.PublisherAuthConfig{
			Logger:      cfg.Logger,
			KeyHash:     cfg.PublisherKeyHash,
			MinDuration: cfg.AuthMinDuration,
		})).Post("/newsletters", newsletterHandler.Publish)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
