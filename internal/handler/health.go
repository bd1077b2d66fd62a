package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	db     HealthChecker
	cache  HealthChecker
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
// Pass nil for db or cache if they are not configured.
func NewHealthHandler(db, cache HealthChecker, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint.
// No dependency checks.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HealthCheck answers with an empty 200.
//
// GET /health_check
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Readyz is a readiness probe endpoint.
// It checks all dependencies and returns 200 only if all are healthy.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Probes run concurrently so one slow dependency does not hide the other.
	var pg, rd string
	var g errgroup.Group
	g.Go(func() error { pg = h.check(ctx, "postgres", h.db); return nil })
	g.Go(func() error { rd = h.check(ctx, "redis", h.cache); return nil })
	_ = g.Wait()

	checks := map[string]string{
		"postgres": pg,
		"redis":    rd,
	}

	status := "ok"
	statusCode := http.StatusOK
	for _, result := range checks {
		if result == "unavailable" {
			status = "unhealthy"
			statusCode = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, statusCode, HealthResponse{
		Status: status,
		Checks: checks,
	})
}

func (h *HealthHandler) check(ctx context.Context, name string, dep HealthChecker) string {
	if dep == nil {
		return "not configured"
	}
	if err := dep.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", "dependency", name, "error", err)
		return "unavailable"
	}
	return "ok"
}
