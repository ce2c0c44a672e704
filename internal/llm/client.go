package llm

import "context"

// Client completes a single user prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds provider settings.
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	UseCache  bool
}

const defaultMaxTokens = 4096
