package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/thearyanahmed/newsletter/internal/cache"
	"github.com/thearyanahmed/newsletter/internal/model"
)

type sentEmail struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// recordingSender captures every sent email. failAt makes the nth call
// (1-based) fail with err; zero with a non-nil err fails every call.
type recordingSender struct {
	mu     sync.Mutex
	sent   []sentEmail
	calls  int
	failAt int
	err    error
}

func (r *recordingSender) SendEmail(_ context.Context, to model.SubscriberEmail, subject, htmlBody, textBody string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil && (r.failAt == 0 || r.failAt == r.calls) {
		return r.err
	}
	r.sent = append(r.sent, sentEmail{To: to.String(), Subject: subject, HTMLBody: htmlBody, TextBody: textBody})
	return nil
}

func (r *recordingSender) Sent() []sentEmail {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sentEmail, len(r.sent))
	copy(out, r.sent)
	return out
}

func (r *recordingSender) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeLocker struct {
	held     bool
	err      error
	released int
}

func (f *fakeLocker) TryLock(_ context.Context, _ string, _ time.Duration) (cache.UnlockFunc, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if f.held {
		return nil, false, nil
	}
	f.held = true
	return func(context.Context) error {
		f.held = false
		f.released++
		return nil
	}, true, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
