package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/the-paper-trail/internal/callcache"
)

// openAIClient implements Client for the chat completions API.
type openAIClient struct {
	caller    *callcache.Caller
	apiKey    string
	model     string
	endpoint  string
	maxTokens int
	useCache  bool
}

func newOpenAIClient(cfg Config, caller *callcache.Caller) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &openAIClient{
		caller:    caller,
		apiKey:    cfg.APIKey,
		model:     model,
		endpoint:  strings.TrimRight(baseURL, "/") + "/chat/completions",
		maxTokens: maxTokens,
		useCache:  cfg.UseCache,
	}, nil
}

// openAIResponse is the subset of a chat completion we read.
type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends prompt as the only user message.
func (c *openAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": prompt,
			},
		},
		"temperature": 0,
		"top_p":       1,
		"max_tokens":  c.maxTokens,
	}

	// encoding/json sorts map keys, so identical prompts give identical payloads.
	payload, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := c.caller.Call(ctx, callcache.Request{
		Endpoint: c.endpoint,
		Payload:  payload,
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + c.apiKey,
		},
	}, c.useCache)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return response.Choices[0].Message.Content, nil
}
