package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/thearyanahmed/newsletter/internal/auth"
	"github.com/thearyanahmed/newsletter/internal/handler/dto"
	"github.com/thearyanahmed/newsletter/internal/model"
	"github.com/thearyanahmed/newsletter/internal/service"
)

// NewsletterHandler handles the protected publish route.
type NewsletterHandler struct {
	svc    *service.NewsletterService
	logger *slog.Logger
}

// NewNewsletterHandler creates a new NewsletterHandler.
func NewNewsletterHandler(svc *service.NewsletterService, logger *slog.Logger) *NewsletterHandler {
	return &NewsletterHandler{
		svc:    svc,
		logger: logger,
	}
}

// Publish handles POST /newsletters.
func (h *NewsletterHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req dto.PublishNewsletterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if field := req.Missing(); field != "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", field+" is required")
		return
	}

	result, err := h.svc.Publish(r.Context(), model.Issue{
		Title: *req.Title,
		HTML:  *req.Content.HTML,
		Text:  *req.Content.Text,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("newsletter_publish_requested",
		"issue_id", result.IssueID,
		"publisher", auth.PublisherFromContext(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.PublishNewsletterResponse{
		IssueID:   result.IssueID,
		Delivered: result.Delivered,
		Skipped:   result.Skipped,
	})
}
