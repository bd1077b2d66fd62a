package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thearyanahmed/newsletter/internal/model"
)

func mustEmail(t *testing.T, raw string) model.SubscriberEmail {
	t.Helper()
	e, err := model.ParseSubscriberEmail(raw)
	if err != nil {
		t.Fatalf("ParseSubscriberEmail(%q): %v", raw, err)
	}
	return e
}

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		BaseURL:   baseURL,
		Sender:    mustEmail(t, "newsletter@example.com"),
		AuthToken: "server-token",
		Timeout:   timeout,
	})
}

func TestClient_SendEmail_RequestShape(t *testing.T) {
	t.Parallel()

	var got map[string]string
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/email" {
			t.Errorf("path = %s, want /email", r.URL.Path)
		}
		if r.Header.Get(HeaderServerToken) != "server-token" {
			t.Errorf("missing or wrong %s header", HeaderServerToken)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/", 0)
	err := client.SendEmail(context.Background(), mustEmail(t, "reader@example.com"), "Welcome!", "<p>hi</p>", "hi")
	if err != nil {
		t.Fatalf("SendEmail: %v", err)
	}

	if calls.Load() != 1 {
		t.Fatalf("expected exactly 1 request, got %d", calls.Load())
	}
	want := map[string]string{
		"from":      "newsletter@example.com",
		"to":        "reader@example.com",
		"subject":   "Welcome!",
		"html_body": "<p>hi</p>",
		"text_body": "hi",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("body[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestClient_SendEmail_Non2xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0)
	err := client.SendEmail(context.Background(), mustEmail(t, "reader@example.com"), "s", "h", "t")

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if terr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", terr.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("client must not retry, got %d requests", calls.Load())
	}
}

func TestClient_SendEmail_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(t, server.URL, 100*time.Millisecond)

	start := time.Now()
	err := client.SendEmail(context.Background(), mustEmail(t, "reader@example.com"), "s", "h", "t")
	if err == nil {
		t.Fatal("expected timeout error")
	}

	var terr *TransportError
	if !errors.As(err, &terr) || terr.StatusCode != 0 {
		t.Errorf("expected connection-level TransportError, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
}

func TestClient_SendEmail_Unreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := newTestClient(t, url, time.Second)
	err := client.SendEmail(context.Background(), mustEmail(t, "reader@example.com"), "s", "h", "t")

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{BaseURL: "http://localhost:1"})
	if client.httpClient.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", client.httpClient.Timeout, DefaultTimeout)
	}
	if client.endpoint != "http://localhost:1/email" {
		t.Errorf("endpoint = %q", client.endpoint)
	}
}
