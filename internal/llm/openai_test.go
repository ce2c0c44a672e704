package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Veraticus/the-paper-trail/internal/callcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	caller := callcache.NewCaller(callcache.Open("", nil))

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "openai", config: Config{Provider: "openai", APIKey: "k"}},
		{name: "default provider", config: Config{APIKey: "k"}},
		{name: "anthropic", config: Config{Provider: "Anthropic", APIKey: "k"}},
		{name: "missing key", config: Config{Provider: "openai"}, wantErr: true},
		{name: "unknown provider", config: Config{Provider: "parrot", APIKey: "k"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config, caller)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}

	_, err := NewClient(Config{APIKey: "k"}, nil)
	assert.Error(t, err)
}

func TestOpenAIComplete(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req struct {
			Model       string              `json:"model"`
			Messages    []map[string]string `json:"messages"`
			Temperature float64             `json:"temperature"`
			TopP        float64             `json:"top_p"`
			MaxTokens   int                 `json:"max_tokens"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "gpt-test", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0]["role"])
		assert.Equal(t, "classify these pages", req.Messages[0]["content"])
		assert.Equal(t, 0.0, req.Temperature)
		assert.Equal(t, 1.0, req.TopP)
		assert.Equal(t, 512, req.MaxTokens)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"[]"}}]}`))
	}))
	defer server.Close()

	caller := callcache.NewCaller(callcache.Open("", nil))
	client, err := NewClient(Config{
		Provider:  "openai",
		APIKey:    "test-key",
		Model:     "gpt-test",
		BaseURL:   server.URL + "/v1",
		MaxTokens: 512,
		UseCache:  true,
	}, caller)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := client.Complete(context.Background(), "classify these pages")
		require.NoError(t, err)
		assert.Equal(t, "[]", got)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestOpenAICompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, "status 500"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no completion choices"},
		{"bad json", http.StatusOK, `not json`, "failed to parse response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(Config{APIKey: "k", BaseURL: server.URL, UseCache: true}, callcache.NewCaller(callcache.Open("", nil)))
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), "prompt")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
