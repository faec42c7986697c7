// Package meta is a minimal Marketing API client: it fetches account-level
// insight totals for a reporting window and normalizes them into the
// metric map the snapshot engine consumes.
package meta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prepairo/adpulse/internal/config"
	"go.uber.org/zap"
)

// Action types worth surfacing as their own metrics.
var actionMetrics = map[string]string{
	"mobile_app_install":    "installs",
	"complete_registration": "registrations",
	"purchase":              "purchases",
}

// Client calls the Marketing API insights endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiVersion string
	token      string
	maxRetries int
	logger     *zap.Logger
}

// NewClient creates a Marketing API client.
func NewClient(cfg config.MetaConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiVersion: cfg.APIVersion,
		token:      cfg.AccessToken,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
	}
}

type insightsResponse struct {
	Data []struct {
		Spend       string `json:"spend"`
		Impressions string `json:"impressions"`
		Clicks      string `json:"clicks"`
		Reach       string `json:"reach"`
		Actions     []struct {
			ActionType string `json:"action_type"`
			Value      string `json:"value"`
		} `json:"actions"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// FetchInsights returns account-level totals for the given time range as a
// metric-name to value map. The API reports numbers as strings; values
// that fail to parse are skipped rather than failing the whole fetch.
func (c *Client) FetchInsights(ctx context.Context, accountID string, since, until time.Time) (map[string]float64, error) {
	q := url.Values{}
	q.Set("access_token", c.token)
	q.Set("fields", "spend,impressions,clicks,reach,actions")
	q.Set("time_range", fmt.Sprintf(`{"since":"%s","until":"%s"}`,
		since.Format("2006-01-02"), until.Format("2006-01-02")))
	q.Set("level", "account")

	endpoint := fmt.Sprintf("%s/%s/act_%s/insights?%s", c.baseURL, c.apiVersion, accountID, q.Encode())

	body, err := c.getWithRetry(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch insights for account %s: %w", accountID, err)
	}

	var resp insightsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode insights response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("marketing API error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	metrics := make(map[string]float64)
	for _, row := range resp.Data {
		addMetric(metrics, "spend", row.Spend)
		addMetric(metrics, "impressions", row.Impressions)
		addMetric(metrics, "clicks", row.Clicks)
		addMetric(metrics, "reach", row.Reach)
		for _, action := range row.Actions {
			if name, ok := actionMetrics[action.ActionType]; ok {
				addMetric(metrics, name, action.Value)
			}
		}
	}
	return metrics, nil
}

func addMetric(metrics map[string]float64, name, value string) {
	if value == "" {
		return
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return
	}
	metrics[name] += f
}

// getWithRetry performs a GET with exponential backoff and jitter on
// retryable statuses (429, 5xx) and transport errors.
func (c *Client) getWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * time.Second
			delay += time.Duration(rand.Intn(250)) * time.Millisecond
			c.logger.Warn("retrying marketing API request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if readErr != nil {
				lastErr = readErr
				continue
			}
			return body, nil
		}

		lastErr = fmt.Errorf("marketing API returned status %d", resp.StatusCode)
		if !isRetryableStatus(resp.StatusCode) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
