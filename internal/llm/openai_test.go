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
)

func newTestClient(url string) *OpenAIClient {
	return NewOpenAIClient(Config{
		APIKey:        "sk-test",
		BaseURL:       url,
		RateLimitRPM:  6000,
		EnableCaching: true,
		CacheTTL:      time.Minute,
	})
}

func completionHandler(t *testing.T, reply string, wantAuth string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		if wantAuth != "" {
			assert.Equal(t, wantAuth, r.Header.Get("Authorization"))
		}

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		json.NewEncoder(w).Encode(Response{
			ID: "chatcmpl-1",
			Choices: []Choice{
				{Message: Message{Role: "assistant", Content: reply}},
			},
			Usage: Usage{PromptTokens: 100, CompletionTokens: 50},
		})
	}
}

func TestComplete(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "Overall Score: 73 / 100", "Bearer sk-test"))
	defer server.Close()

	client := newTestClient(server.URL)

	text, usage, err := client.Complete(context.Background(), "", "system prompt", "user prompt")

	require.NoError(t, err)
	assert.Equal(t, "Overall Score: 73 / 100", text)
	require.NotNil(t, usage)
	assert.Equal(t, 100, usage.PromptTokens)

	metrics := client.GetMetrics()
	assert.Equal(t, int64(1), metrics.SuccessRequests)
	assert.Equal(t, int64(100), metrics.TotalTokensIn)
}

func TestComplete_PerCallKeyOverride(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "ok", "Bearer sk-user"))
	defer server.Close()

	client := newTestClient(server.URL)

	_, _, err := client.Complete(context.Background(), "sk-user", "sys", "usr")
	require.NoError(t, err)
}

func TestComplete_MissingKey(t *testing.T) {
	client := NewOpenAIClient(Config{BaseURL: "http://invalid.local"})

	_, _, err := client.Complete(context.Background(), "", "sys", "usr")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestComplete_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, _, err := client.Complete(context.Background(), "", "sys", "usr")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "HTTP 429", apiErr.Error())

	metrics := client.GetMetrics()
	assert.Equal(t, int64(1), metrics.FailedRequests)
}

func TestComplete_CacheHit(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(Response{
			Choices: []Choice{{Message: Message{Content: "cached reply"}}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	first, _, err := client.Complete(ctx, "", "sys", "usr")
	require.NoError(t, err)

	second, _, err := client.Complete(ctx, "", "sys", "usr")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(1), client.GetMetrics().CacheHits)
}

func TestComplete_DistinctPromptsMiss(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(Response{
			Choices: []Choice{{Message: Message{Content: "reply"}}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	_, _, err := client.Complete(ctx, "", "sys", "company A")
	require.NoError(t, err)
	_, _, err = client.Complete(ctx, "", "sys", "company B")
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestComplete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Response{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, _, err := client.Complete(context.Background(), "", "sys", "usr")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestTestKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		if r.Header.Get("Authorization") == "Bearer sk-valid" {
			w.Write([]byte(`{"data":[]}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx := context.Background()

	assert.NoError(t, client.TestKey(ctx, "sk-valid"))

	err := client.TestKey(ctx, "sk-bogus")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
