package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/aureus-network/aureus-indexer/internal/chain"
	"github.com/aureus-network/aureus-indexer/internal/common"
	"github.com/aureus-network/aureus-indexer/internal/config"
	"github.com/aureus-network/aureus-indexer/internal/logger"
	"github.com/aureus-network/aureus-indexer/internal/store"
)

// Envelope is the JSON body POSTed to webhook receivers.
type Envelope struct {
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// WebhookSender delivers events to subscribed receivers. Transport retries
// within one delivery are bounded and handled by retryablehttp; every
// delivery's final outcome is appended to the audit trail, success or not.
//
// Deliveries run single-flight from the dispatcher goroutine, which is what
// makes the per-delivery attempt counter sound.
type WebhookSender struct {
	client   *retryablehttp.Client
	webhooks *store.WebhookStore
	log      *logger.Logger

	// attempts of the delivery currently in flight, recorded by the
	// client's request hook
	attempts atomic.Int64
}

// NewWebhookSender creates a webhook sender with the configured retry
// budget.
func NewWebhookSender(cfg config.WebhookConfig, webhooks *store.WebhookStore, log *logger.Logger) *WebhookSender {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.HTTPClient.Timeout = cfg.Timeout.Duration
	client.RetryMax = cfg.MaxAttempts - 1
	client.RetryWaitMin = cfg.RetryWaitMin.Duration
	client.RetryWaitMax = cfg.RetryWaitMax.Duration

	s := &WebhookSender{
		client:   client,
		webhooks: webhooks,
		log:      log.WithComponent(common.ComponentWebhookSender),
	}

	client.RequestLogHook = func(_ retryablehttp.Logger, _ *http.Request, attempt int) {
		s.attempts.Store(int64(attempt) + 1)
	}

	return s
}

// Deliver fans the event out to every active subscription whose filter
// matches its kind. Individual delivery failures are recorded and logged,
// never returned as fatal: one broken receiver must not affect the others.
func (s *WebhookSender) Deliver(ctx context.Context, ev *chain.Event) error {
	subs, err := s.webhooks.ActiveSubscriptions(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(Envelope{
		Event:     ev.Kind,
		Timestamp: time.Now().UTC(),
		Data:      ev.Args,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook envelope for %s: %w", ev.Kind, err)
	}

	for _, sub := range subs {
		if !sub.Matches(ev.Kind) {
			continue
		}

		s.deliverOne(ctx, sub, ev.Kind, body)
	}

	return nil
}

func (s *WebhookSender) deliverOne(ctx context.Context, sub *store.Subscription, kind string, body []byte) {
	s.attempts.Store(0)

	delivery := &store.Delivery{
		SubscriptionID: sub.ID,
		EventName:      kind,
		Payload:        string(body),
	}

	resp, err := s.post(ctx, sub, body)
	delivery.Attempts = max(s.attempts.Load(), 1)

	switch {
	case err != nil:
		msg := err.Error()
		delivery.ErrorMessage = &msg
		DeliveryInc("webhook", "error")
		s.log.Warnf("webhook delivery to %s failed after %d attempts: %v",
			sub.URL, delivery.Attempts, err)
	default:
		code := int64(resp.StatusCode)
		delivery.StatusCode = &code
		delivery.Success = resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices

		if delivery.Success {
			DeliveryInc("webhook", "success")
		} else {
			DeliveryInc("webhook", "error")
			s.log.Warnf("webhook delivery to %s returned status %d", sub.URL, resp.StatusCode)
		}
	}

	if err := s.webhooks.InsertDelivery(ctx, delivery); err != nil {
		s.log.Errorf("failed to record webhook delivery for subscription %s: %v", sub.ID, err)
	}
}

func (s *WebhookSender) post(ctx context.Context, sub *store.Subscription, body []byte) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if sub.Secret != "" {
		req.Header.Set("X-Signature", Sign(sub.Secret, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	// Receivers' response bodies are irrelevant, drain so the connection
	// can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return resp, nil
}

// Sign returns the hex-encoded HMAC-SHA256 of the body under the
// subscription secret, as carried in the X-Signature header.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}
