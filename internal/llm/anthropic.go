package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/the-paper-trail/internal/callcache"
)

// anthropicClient implements Client for the messages API.
type anthropicClient struct {
	caller    *callcache.Caller
	apiKey    string
	model     string
	endpoint  string
	maxTokens int
	useCache  bool
}

func newAnthropicClient(cfg Config, caller *callcache.Caller) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}

	return &anthropicClient{
		caller:    caller,
		apiKey:    cfg.APIKey,
		model:     model,
		endpoint:  strings.TrimRight(baseURL, "/") + "/messages",
		maxTokens: maxTokens,
		useCache:  cfg.UseCache,
	}, nil
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Complete sends prompt as the only user message.
func (c *anthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	requestBody := map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": 0,
		"top_p":       1,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": prompt,
			},
		},
	}

	payload, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.caller.Call(ctx, callcache.Request{
		Endpoint: c.endpoint,
		Payload:  payload,
		Headers: map[string]string{
			"Content-Type":      "application/json",
			"x-api-key":         c.apiKey,
			"anthropic-version": "2023-06-01",
		},
	}, c.useCache)
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" || block.Type == "" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("no content in response")
	}

	return text.String(), nil
}
