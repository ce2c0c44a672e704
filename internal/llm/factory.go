package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/the-paper-trail/internal/callcache"
)

// NewClient creates a client for cfg.Provider. All calls go through caller.
func NewClient(cfg Config, caller *callcache.Caller) (Client, error) {
	if caller == nil {
		return nil, fmt.Errorf("call cache is required")
	}

	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return newOpenAIClient(cfg, caller)
	case "anthropic":
		return newAnthropicClient(cfg, caller)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
