package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/thearyanahmed/newsletter/internal/auth"
)

// defaultMinAuthDuration is the minimum time spent on auth to blunt timing attacks.
const defaultMinAuthDuration = 200 * time.Millisecond

// PublisherAuthConfig holds configuration for the publisher key gate.
type PublisherAuthConfig struct {
	Logger *slog.Logger
	// KeyHash is the Argon2id hash of the publisher key. Empty leaves the
	// route open.
	KeyHash string
	// MinDuration overrides defaultMinAuthDuration when positive.
	MinDuration time.Duration
}

// PublisherAuth guards the publishing endpoint with a single shared key.
func PublisherAuth(cfg PublisherAuthConfig) func(http.Handler) http.Handler {
	minDuration := cfg.MinDuration
	if minDuration <= 0 {
		minDuration = defaultMinAuthDuration
	}

	return func(next http.Handler) http.Handler {
		if cfg.KeyHash == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			// Ensure consistent timing regardless of outcome
			defer func() {
				elapsed := time.Since(startTime)
				if elapsed < minDuration {
					time.Sleep(minDuration - elapsed)
				}
			}()

			reject := func(reason string) {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
			}

			key := extractAPIKey(r)
			if key == "" {
				reject("missing_key")
				return
			}

			keyID, err := auth.ParsePublisherKeyID(key)
			if err != nil {
				reject("invalid_format")
				return
			}

			match, err := auth.VerifyKey(key, cfg.KeyHash)
			if err != nil {
				cfg.Logger.Error("publisher key hash unusable",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}
			if !match {
				reject("invalid_key")
				return
			}

			cfg.Logger.Info("authentication successful",
				slog.String("key_id", keyID),
				slog.String("ip", r.RemoteAddr),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithPublisher(r.Context(), keyID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractAPIKey supports both "Authorization: Bearer <key>" and "X-API-Key: <key>".
func extractAPIKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return r.Header.Get("X-API-Key")
}

// writeAuthError uses the same message for every failure to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing publisher key","code":"UNAUTHORIZED"}`))
}
