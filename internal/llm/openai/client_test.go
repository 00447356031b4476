package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docfields/internal/common"
	"github.com/joseph-ayodele/docfields/internal/llm"
)

func TestCompleteSendsPromptAndBudget(t *testing.T) {
	var got map[string]any
	var auth, reqID, org string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		reqID = r.Header.Get("X-Request-ID")
		org = r.Header.Get("OpenAI-Organization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"amount\":\"1.00\"}\n"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Model: "gpt-test", Organization: "org-9"}, nil)
	assert.Equal(t, "openai/gpt-test", c.Identity())
	ctx := common.WithRequestID(context.Background(), "req-123")
	out, err := c.Complete(ctx, "extract please", llm.ExtractionOptions)
	require.NoError(t, err)

	assert.Equal(t, `{"amount":"1.00"}`, out)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "req-123", reqID)
	assert.Equal(t, "org-9", org)
	assert.Equal(t, "gpt-test", got["model"])
	assert.InDelta(t, 0.1, got["temperature"], 1e-6)
	assert.EqualValues(t, 1000, got["max_tokens"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, "extract please", msgs[0].(map[string]any)["content"])
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusTooManyRequests, `{"error":"slow down"}`, "openai status 429"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"bad json", http.StatusOK, `not json`, "decode openai response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
			_, err := c.Complete(context.Background(), "p", llm.ValidationOptions)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCompleteRetriesThrottledRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Retries: 2, RetryBackoff: time.Millisecond}, nil)
	out, err := c.Complete(context.Background(), "p", llm.ValidationOptions)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.EqualValues(t, 3, calls.Load())
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Retries: 3, RetryBackoff: time.Millisecond}, nil)
	_, err := c.Complete(context.Background(), "p", llm.ValidationOptions)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai status 401")
	assert.EqualValues(t, 1, calls.Load())
}
