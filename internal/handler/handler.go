// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/thearyanahmed/newsletter/internal/handler/dto"
	"github.com/thearyanahmed/newsletter/internal/middleware"
	"github.com/thearyanahmed/newsletter/internal/model"
	"github.com/thearyanahmed/newsletter/internal/service"
)

// Handler serves the router fallbacks.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps workflow errors to responses. Server-side failures
// are logged with their full cause chain and answered with a generic body.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *model.ValidationError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", verr.Error())
	case errors.Is(err, service.ErrMissingToken):
		writeError(w, http.StatusBadRequest, "MISSING_TOKEN", "subscription_token is required")
	case errors.Is(err, service.ErrUnknownToken):
		writeError(w, http.StatusBadRequest, "UNKNOWN_TOKEN", "subscription token is not recognised")
	case errors.Is(err, service.ErrPublishInProgress):
		writeError(w, http.StatusConflict, "PUBLISH_IN_PROGRESS", "a newsletter is already being published")
	default:
		logger.Error("internal_error",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
