package channel

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// WebhookConfig configures the webhook channel.
type WebhookConfig struct {
	// SigningSecret, when set, adds X-Webhook-Signature headers to every
	// delivery so receivers can authenticate the payload.
	SigningSecret string `env:"WEBHOOK_SIGNING_SECRET"`
	// Timeout bounds a single delivery attempt.
	Timeout time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"30s"`
}

// Webhook delivers messages as JSON POST requests to a recipient URL.
// Payloads are optionally signed with HMAC-SHA256 bound to a timestamp,
// following the scheme used by Stripe and GitHub.
type Webhook struct {
	cfg    WebhookConfig
	client *http.Client
	log    *slog.Logger
}

// webhookEnvelope is the JSON body posted to the recipient URL.
type webhookEnvelope struct {
	Subject  string         `json:"subject,omitempty"`
	Body     string         `json:"body"`
	Metadata map[string]any `json:"metadata,omitempty"`
	SentAt   time.Time      `json:"sent_at"`
}

// NewWebhook creates the webhook channel. The HTTP client is reused
// across deliveries for connection pooling.
func NewWebhook(cfg WebhookConfig, opts ...WebhookOption) *Webhook {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	w := &Webhook{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WebhookOption configures the webhook channel.
type WebhookOption func(*Webhook)

// WithWebhookClient replaces the HTTP client, mainly for tests.
func WithWebhookClient(client *http.Client) WebhookOption {
	return func(w *Webhook) {
		if client != nil {
			w.client = client
		}
	}
}

// WithWebhookLogger sets the logger used for delivery outcomes.
func WithWebhookLogger(log *slog.Logger) WebhookOption {
	return func(w *Webhook) {
		if log != nil {
			w.log = log
		}
	}
}

// Name implements Channel.
func (w *Webhook) Name() string { return "webhook" }

// ValidateRecipient implements Channel. Only absolute http and https
// URLs are accepted.
func (w *Webhook) ValidateRecipient(recipient Recipient) bool {
	u, err := url.Parse(recipient.WebhookURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsAvailable implements Channel.
func (w *Webhook) IsAvailable(ctx context.Context) bool {
	return true
}

// Send implements Channel. Any 2xx response counts as delivered; the
// response status and delivery ID are recorded in the result metadata.
func (w *Webhook) Send(ctx context.Context, params Params) Result {
	if !w.ValidateRecipient(params.Recipient) {
		return ErrorResult("invalid webhook recipient", nil)
	}

	payload, err := json.Marshal(webhookEnvelope{
		Subject:  params.Subject,
		Body:     params.Body,
		Metadata: params.Metadata,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		return ErrorResult(fmt.Sprintf("marshal payload: %v", err), nil)
	}

	deliveryID := uuid.New().String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, params.Recipient.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return ErrorResult(fmt.Sprintf("build request: %v", err), nil)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-ID", deliveryID)

	if w.cfg.SigningSecret != "" {
		timestamp := time.Now().Unix()
		req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(timestamp, 10))
		req.Header.Set("X-Webhook-Signature", signPayload(w.cfg.SigningSecret, timestamp, payload))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		w.log.ErrorContext(ctx, "webhook delivery failed",
			slog.String("url", params.Recipient.WebhookURL),
			slog.Any("error", err))
		return ErrorResult(err.Error(), map[string]any{"url": params.Recipient.WebhookURL})
	}
	defer resp.Body.Close() //nolint:errcheck

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		w.log.WarnContext(ctx, "webhook rejected",
			slog.String("url", params.Recipient.WebhookURL),
			slog.Int("status", resp.StatusCode))
		return ErrorResult(fmt.Sprintf("unexpected status: %d", resp.StatusCode),
			map[string]any{"status": resp.StatusCode})
	}

	return SuccessResult(deliveryID, "webhook", map[string]any{"status": resp.StatusCode})
}

// signPayload computes the timestamp-bound HMAC-SHA256 signature over
// "timestamp.payload".
func signPayload(secret string, timestamp int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.%s", timestamp, payload)
	return hex.EncodeToString(h.Sum(nil))
}
