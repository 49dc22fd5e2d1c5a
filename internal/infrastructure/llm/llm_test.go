package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ContentCurator/internal/config"
	"ContentCurator/internal/retry"
)

func TestChatGPTComplete(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" 87\n"}}]}`))
	}))
	defer srv.Close()

	client, err := NewChatGPTClient(config.LLMConfig{Endpoint: srv.URL, Model: "gpt-4o-mini", APIKey: "sk-test"})
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "rate this")
	require.NoError(t, err)
	assert.Equal(t, "87", text)
	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.Equal(t, "gpt-4o-mini", client.Model())
}

func TestChatGPTRateLimitIsStructured(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "12")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer srv.Close()

	client, err := NewChatGPTClient(config.LLMConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "Rate limit reached", apiErr.Message)
	assert.True(t, apiErr.RateLimited())

	limited, delay := retry.DefaultPolicy().Classify(err)
	assert.True(t, limited)
	assert.Equal(t, 17*time.Second, delay)
}

func TestChatGPTClientErrorIsFatal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := NewChatGPTClient(config.LLMConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "x")
	require.Error(t, err)
	limited, _ := retry.DefaultPolicy().Classify(err)
	assert.False(t, limited)
}

func TestNewClientsRequireKey(t *testing.T) {
	t.Parallel()

	_, err := NewChatGPTClient(config.LLMConfig{Model: "m"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewGeminiClient(context.Background(), config.LLMConfig{Model: "m"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestAPIErrorSignal(t *testing.T) {
	t.Parallel()

	exhausted := &APIError{Provider: "gemini", StatusCode: 400, Status: "RESOURCE_EXHAUSTED"}
	assert.True(t, exhausted.RateLimited())
	_, ok := exhausted.RetryDelay()
	assert.False(t, ok)

	wrapped := errors.Join(errors.New("context"), &APIError{StatusCode: 429, RetryAfter: 3 * time.Second})
	limited, delay := retry.DefaultPolicy().Classify(wrapped)
	assert.True(t, limited)
	assert.Equal(t, 8*time.Second, delay)

	var nilErr *APIError
	assert.False(t, nilErr.RateLimited())
}

func TestRetryInfoDelay(t *testing.T) {
	t.Parallel()

	details := []map[string]any{
		{"@type": "type.googleapis.com/google.rpc.QuotaFailure"},
		{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "49s"},
	}
	assert.Equal(t, 49*time.Second, retryInfoDelay(details))
	assert.Zero(t, retryInfoDelay(nil))
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2500*time.Millisecond, parseRetryAfter("2.5"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("soon"))
}
