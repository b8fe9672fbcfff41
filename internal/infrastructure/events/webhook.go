package events

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
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/davidleathers/analysis-orchestrator/internal/domain/analysis"
	"github.com/davidleathers/analysis-orchestrator/internal/domain/errors"
	"github.com/davidleathers/analysis-orchestrator/internal/infrastructure/config"
)

// EventTypeRuleTriggered is sent in the X-Event-Type header.
const EventTypeRuleTriggered = "analysis.rule_triggered"

// WebhookEndpoint is one delivery target
type WebhookEndpoint struct {
	URL         string
	Secret      string
	Timeout     time.Duration
	RetryPolicy RetryPolicy
}

// RetryPolicy controls redelivery of a single webhook call
type RetryPolicy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryPolicy returns the policy used when an endpoint does not set one
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2,
	}
}

// WebhookPayload is the JSON body posted to endpoints
type WebhookPayload struct {
	EventID   string                `json:"event_id"`
	EventType string                `json:"event_type"`
	Timestamp time.Time             `json:"timestamp"`
	Data      analysis.Notification `json:"data"`
}

// WebhookNotifier posts notifications to every configured endpoint. Deliveries
// share one rate limiter.
type WebhookNotifier struct {
	mu        sync.RWMutex
	endpoints []WebhookEndpoint
	client    *http.Client
	limiter   *rate.Limiter
	logger    *zap.Logger
}

// NewWebhookNotifier creates a notifier. ratePerSecond <= 0 disables limiting.
func NewWebhookNotifier(logger *zap.Logger, ratePerSecond float64, burst int) (*WebhookNotifier, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &WebhookNotifier{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.Named("webhooks"),
	}, nil
}

// NewWebhookNotifierFromConfig builds a notifier for the configured endpoints.
func NewWebhookNotifierFromConfig(cfg config.IntegrationConfig, logger *zap.Logger) (*WebhookNotifier, error) {
	wn, err := NewWebhookNotifier(logger, cfg.NotificationRateLimit, cfg.NotificationBurst)
	if err != nil {
		return nil, err
	}
	for _, ep := range cfg.WebhookEndpoints {
		policy := DefaultRetryPolicy()
		if ep.MaxAttempts > 0 {
			policy.MaxAttempts = ep.MaxAttempts
		}
		wn.AddEndpoint(WebhookEndpoint{
			URL:         ep.URL,
			Secret:      ep.Secret,
			Timeout:     ep.Timeout,
			RetryPolicy: policy,
		})
	}
	return wn, nil
}

func (w *WebhookNotifier) AddEndpoint(endpoint WebhookEndpoint) {
	if endpoint.RetryPolicy.MaxAttempts < 1 {
		endpoint.RetryPolicy = DefaultRetryPolicy()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.endpoints = append(w.endpoints, endpoint)

	w.logger.Info("Added webhook endpoint",
		zap.String("url", endpoint.URL),
		zap.Bool("signed", endpoint.Secret != ""))
}

// Endpoints returns a copy of the configured endpoints
func (w *WebhookNotifier) Endpoints() []WebhookEndpoint {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]WebhookEndpoint(nil), w.endpoints...)
}

// Notify delivers n to all endpoints concurrently and returns the first
// delivery error. Every failure is logged.
func (w *WebhookNotifier) Notify(ctx context.Context, n analysis.Notification) error {
	endpoints := w.Endpoints()
	if len(endpoints) == 0 {
		return nil
	}

	payload, err := json.Marshal(WebhookPayload{
		EventID:   uuid.New().String(),
		EventType: EventTypeRuleTriggered,
		Timestamp: n.Timestamp,
		Data:      n,
	})
	if err != nil {
		return errors.NewInternalError("failed to marshal webhook payload").WithCause(err)
	}

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	for _, ep := range endpoints {
		wg.Add(1)
		go func(ep WebhookEndpoint) {
			defer wg.Done()
			if err := w.send(ctx, ep, payload); err != nil {
				w.logger.Error("Webhook delivery failed",
					zap.String("url", ep.URL),
					zap.String("rule_id", n.RuleID),
					zap.Error(err))
				errMu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("webhook %s failed: %w", ep.URL, err)
				}
				errMu.Unlock()
				return
			}
			w.logger.Debug("Webhook delivered",
				zap.String("url", ep.URL),
				zap.String("rule_id", n.RuleID))
		}(ep)
	}
	wg.Wait()
	return firstErr
}

func (w *WebhookNotifier) send(ctx context.Context, ep WebhookEndpoint, payload []byte) error {
	if ep.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ep.Timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= ep.RetryPolicy.MaxAttempts; attempt++ {
		if err := w.limiter.Wait(ctx); err != nil {
			return errors.NewUpstreamError("webhook", "rate limiter wait aborted").WithCause(err)
		}

		status, err := w.post(ctx, ep, payload)
		switch {
		case err == nil && status >= 200 && status < 300:
			return nil
		case err == nil && !isRetryableStatus(status):
			return errors.NewUpstreamError("webhook", fmt.Sprintf("non-retryable status: %d", status))
		case err == nil:
			lastErr = fmt.Errorf("status %d", status)
		default:
			lastErr = err
		}

		if attempt == ep.RetryPolicy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return errors.NewUpstreamError("webhook", "delivery cancelled").WithCause(ctx.Err())
		case <-time.After(backoff(attempt, ep.RetryPolicy)):
		}
	}
	return errors.NewUpstreamError("webhook", "delivery failed after retries").WithCause(lastErr)
}

func (w *WebhookNotifier) post(ctx context.Context, ep WebhookEndpoint, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Analysis-Orchestrator/1.0")
	req.Header.Set("X-Event-Type", EventTypeRuleTriggered)
	if ep.Secret != "" {
		req.Header.Set("X-Signature-SHA256", Sign(payload, ep.Secret))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// Sign returns the HMAC-SHA256 signature header value for payload
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

func backoff(attempt int, policy RetryPolicy) time.Duration {
	delay := policy.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * policy.BackoffFactor)
		if delay > policy.MaxDelay {
			return policy.MaxDelay
		}
	}
	return delay
}

func isRetryableStatus(status int) bool {
	return status >= 500 || status == http.StatusRequestTimeout || status == http.StatusTooManyRequests
}
