// Package slack delivers report text to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/prepairo/adpulse/internal/config"
	"go.uber.org/zap"
)

// Notifier delivers a finished report somewhere humans will see it.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// WebhookNotifier posts plain-text messages to a Slack incoming webhook.
type WebhookNotifier struct {
	httpClient *http.Client
	webhookURL string
	logger     *zap.Logger
}

// NewWebhookNotifier creates a Slack webhook notifier.
func NewWebhookNotifier(cfg config.SlackConfig, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		webhookURL: cfg.WebhookURL,
		logger:     logger,
	}
}

type webhookPayload struct {
	Text string `json:"text"`
}

// Send posts the message. Slack answers a bare "ok" body on success.
func (n *WebhookNotifier) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(webhookPayload{Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Debug("report delivered to Slack", zap.Int("chars", len(text)))
	return nil
}

// NopNotifier discards messages. Used for dry runs and when no webhook
// is configured; the report still lands in the logs.
type NopNotifier struct {
	logger *zap.Logger
}

// NewNopNotifier creates a notifier that only logs.
func NewNopNotifier(logger *zap.Logger) *NopNotifier {
	return &NopNotifier{logger: logger}
}

func (n *NopNotifier) Send(ctx context.Context, text string) error {
	n.logger.Info("report (delivery disabled)", zap.String("text", text))
	return nil
}
