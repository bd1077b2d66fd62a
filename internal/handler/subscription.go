package handler

import (
	"log/slog"
	"net/http"

	"github.com/thearyanahmed/newsletter/internal/handler/dto"
	"github.com/thearyanahmed/newsletter/internal/model"
	"github.com/thearyanahmed/newsletter/internal/service"
)

// SubscriptionHandler handles the public subscription routes.
type SubscriptionHandler struct {
	svc    *service.SubscriptionService
	logger *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(svc *service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		svc:    svc,
		logger: logger,
	}
}

// Subscribe handles POST /subscriptions with form fields name and email.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Invalid form body")
		return
	}

	if err := h.svc.Subscribe(r.Context(), r.PostForm.Get("name"), r.PostForm.Get("email")); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StatusResponse{Status: string(model.StatusPendingConfirmation)})
}

// Confirm handles GET /subscriptions/confirm?subscription_token=.
func (h *SubscriptionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("subscription_token")

	if err := h.svc.Confirm(r.Context(), token); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.StatusResponse{Status: string(model.StatusConfirmed)})
}
