package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/thearyanahmed/newsletter/internal/model"
)

const (
	// DefaultTimeout is the total request timeout.
	DefaultTimeout = 10 * time.Second
	// DefaultDialTimeout is the connection timeout.
	DefaultDialTimeout = 2 * time.Second

	// HeaderServerToken carries the provider credential.
	HeaderServerToken = "X-Postmark-Server-Token"
)

// ClientConfig configures the HTTP email provider client.
type ClientConfig struct {
	BaseURL     string
	Sender      model.SubscriberEmail
	AuthToken   string
	Timeout     time.Duration
	DialTimeout time.Duration
}

// Client sends email through an HTTP provider API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	sender     model.SubscriberEmail
	authToken  string
}

type sendEmailRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body"`
}

// NewClient creates a provider client with bounded timeouts.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}

	return &Client{
		httpClient: newHTTPClient(cfg.Timeout, cfg.DialTimeout),
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/email",
		sender:     cfg.Sender,
		authToken:  cfg.AuthToken,
	}
}

func newHTTPClient(timeout, dialTimeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   dialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: dialTimeout,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		// Don't follow redirects
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// SendEmail posts one message. Any non-2xx response is a *TransportError.
func (c *Client) SendEmail(ctx context.Context, recipient model.SubscriberEmail, subject, htmlBody, textBody string) error {
	payload, err := json.Marshal(sendEmailRequest{
		From:     c.sender.String(),
		To:       recipient.String(),
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
	if err != nil {
		return fmt.Errorf("encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderServerToken, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	// Drain a bounded amount so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{
			StatusCode: resp.StatusCode,
			Err:        errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	return nil
}
