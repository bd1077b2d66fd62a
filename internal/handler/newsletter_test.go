package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/thearyanahmed/newsletter/internal/cache"
	"github.com/thearyanahmed/newsletter/internal/handler/dto"
	"github.com/thearyanahmed/newsletter/internal/model"
	"github.com/thearyanahmed/newsletter/internal/repository"
	"github.com/thearyanahmed/newsletter/internal/service"
)

const validNewsletterBody = `{"title":"Newsletter title","content":{"html":"<p>Newsletter body as HTML</p>","text":"Newsletter body as plain text"}}`

type newsletterTestEnv struct {
	handler *NewsletterHandler
	store   *repository.MemoryStore
	sender  *captureSender
}

func newNewsletterTestEnv(t *testing.T, locker service.Locker) *newsletterTestEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	sender := &captureSender{}
	svc := service.NewNewsletterService(store, sender, locker, 0, discardLogger(), nil)
	return &newsletterTestEnv{
		handler: NewNewsletterHandler(svc, discardLogger()),
		store:   store,
		sender:  sender,
	}
}

func (e *newsletterTestEnv) publish(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/newsletters", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.Publish(rec, req)
	return rec
}

func TestPublish_DeliversToConfirmedOnly(t *testing.T) {
	t.Parallel()
	env := newNewsletterTestEnv(t, nil)
	env.store.Seed(model.Subscriber{Email: "confirmed@example.com", Name: "c", Status: model.StatusConfirmed})
	env.store.Seed(model.Subscriber{Email: "pending@example.com", Name: "p", Status: model.StatusPendingConfirmation})

	rec := env.publish(validNewsletterBody)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.PublishNewsletterResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Delivered != 1 || resp.IssueID == "" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if env.sender.count() != 1 || env.sender.sent[0].to != "confirmed@example.com" {
		t.Errorf("unexpected deliveries: %+v", env.sender.sent)
	}
}

func TestPublish_InvalidBodyReturns400(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"content":{"html":"<p>x</p>","text":"x"}}`},
		{"missing content", `{"title":"Newsletter!"}`},
		{"missing html", `{"title":"Newsletter!","content":{"text":"x"}}`},
		{"missing text", `{"title":"Newsletter!","content":{"html":"<p>x</p>"}}`},
		{"malformed json", `{"title":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newNewsletterTestEnv(t, nil)

			rec := env.publish(tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
			if env.sender.count() != 0 {
				t.Error("no email should be sent")
			}
		})
	}
}

func TestPublish_SendFailureReturns500(t *testing.T) {
	t.Parallel()
	env := newNewsletterTestEnv(t, nil)
	env.store.Seed(model.Subscriber{Email: "confirmed@example.com", Name: "c", Status: model.StatusConfirmed})
	env.sender.err = errors.New("provider down")

	rec := env.publish(validNewsletterBody)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestPublish_InProgressReturns409(t *testing.T) {
	t.Parallel()
	env := newNewsletterTestEnv(t, busyLocker{})

	rec := env.publish(validNewsletterBody)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "PUBLISH_IN_PROGRESS" {
		t.Errorf("unexpected code: %s", resp.Code)
	}
}

type busyLocker struct{}

func (busyLocker) TryLock(context.Context, string, time.Duration) (cache.UnlockFunc, bool, error) {
	return nil, false, nil
}
