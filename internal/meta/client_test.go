package meta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prepairo/adpulse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.MetaConfig{
		AccessToken: "test-token",
		APIVersion:  "v19.0",
		BaseURL:     serverURL,
		Timeout:     time.Second,
		MaxRetries:  2,
	}, zap.NewNop())
}

func window() (time.Time, time.Time) {
	until := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	return until.Add(-6 * time.Hour), until
}

func TestFetchInsights_ParsesMetrics(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "test-token", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{"data":[{
			"spend":"123.45",
			"impressions":"10000",
			"clicks":"250",
			"reach":"8000",
			"actions":[
				{"action_type":"mobile_app_install","value":"42"},
				{"action_type":"complete_registration","value":"17"},
				{"action_type":"link_click","value":"99"}
			]
		}]}`))
	}))
	defer srv.Close()

	since, until := window()
	metrics, err := newTestClient(srv.URL).FetchInsights(context.Background(), "123", since, until)

	require.NoError(t, err)
	assert.Equal(t, "/v19.0/act_123/insights", gotPath)
	assert.Equal(t, 123.45, metrics["spend"])
	assert.Equal(t, 10000.0, metrics["impressions"])
	assert.Equal(t, 250.0, metrics["clicks"])
	assert.Equal(t, 8000.0, metrics["reach"])
	assert.Equal(t, 42.0, metrics["installs"])
	assert.Equal(t, 17.0, metrics["registrations"])
	assert.NotContains(t, metrics, "link_click", "unmapped action types are dropped")
}

func TestFetchInsights_RetriesOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"data":[{"spend":"10"}]}`))
	}))
	defer srv.Close()

	since, until := window()
	metrics, err := newTestClient(srv.URL).FetchInsights(context.Background(), "123", since, until)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 10.0, metrics["spend"])
}

func TestFetchInsights_DoesNotRetryClientError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	since, until := window()
	_, err := newTestClient(srv.URL).FetchInsights(context.Background(), "123", since, until)

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "4xx other than 429 is not retryable")
}

func TestFetchInsights_APIErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","code":190}}`))
	}))
	defer srv.Close()

	since, until := window()
	_, err := newTestClient(srv.URL).FetchInsights(context.Background(), "123", since, until)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "190")
	assert.Contains(t, err.Error(), "Invalid OAuth access token")
}

func TestFetchInsights_SkipsUnparsableValues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"spend":"n/a","clicks":"5"}]}`))
	}))
	defer srv.Close()

	since, until := window()
	metrics, err := newTestClient(srv.URL).FetchInsights(context.Background(), "123", since, until)

	require.NoError(t, err)
	assert.NotContains(t, metrics, "spend")
	assert.Equal(t, 5.0, metrics["clicks"])
}
