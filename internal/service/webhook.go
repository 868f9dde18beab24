package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WebhookNotifier posts tenant event notifications. Deliveries are best
// effort: failures are swallowed, and a token bucket caps the outbound rate
// so a hot login loop cannot flood a tenant's endpoint.
type WebhookNotifier struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewWebhookNotifier(timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		logger:  logger,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, endpoint, event string, payload map[string]any) {
	if endpoint == "" {
		return
	}
	if !n.limiter.Allow() {
		n.logger.Debug("webhook dropped by outbound limiter", zap.String("event", event))
		return
	}

	body, err := json.Marshal(map[string]any{
		"event":     event,
		"data":      payload,
		"timestamp": time.Now().Unix(),
	})
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		n.logger.Debug("webhook request build failed", zap.String("event", event), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Debug("webhook delivery failed", zap.String("event", event), zap.Error(err))
		return
	}
	_ = resp.Body.Close()
}
