package main

import (
	"fmt"
	"os"

	"github.com/Veraticus/the-paper-trail/internal/callcache"
	"github.com/Veraticus/the-paper-trail/internal/common"
	"github.com/Veraticus/the-paper-trail/internal/llm"
	"github.com/spf13/viper"
)

// createLLMClient creates a completion client based on configuration.
// This function is shared by every command that calls the model.
func createLLMClient(caller *callcache.Caller, noCache bool) (llm.Client, error) {
	provider := viper.GetString("llm.provider")

	cfg := llm.Config{
		Provider:  provider,
		Model:     viper.GetString("llm.model"),
		MaxTokens: viper.GetInt("llm.max_tokens"),
		BaseURL:   viper.GetString("llm.base_url"),
		UseCache:  useCache(noCache),
	}

	switch provider {
	case "openai", "":
		cfg.APIKey = firstNonEmpty(viper.GetString("llm.openai_api_key"), os.Getenv("OPENAI_API_KEY"))
		if cfg.APIKey == "" {
			return nil, common.NewUserError(
				"OpenAI API key not found in config or OPENAI_API_KEY environment variable",
				common.ErrMissingConfig)
		}
	case "anthropic":
		cfg.APIKey = firstNonEmpty(viper.GetString("llm.anthropic_api_key"), os.Getenv("ANTHROPIC_API_KEY"))
		if cfg.APIKey == "" {
			return nil, common.NewUserError(
				"anthropic API key not found in config or ANTHROPIC_API_KEY environment variable",
				common.ErrMissingConfig)
		}
	default:
		return nil, common.NewUserError(fmt.Sprintf("unsupported LLM provider %q", provider), common.ErrInvalidConfig)
	}

	return llm.NewClient(cfg, caller)
}
