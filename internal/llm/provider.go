package llm

import (
	"fmt"
	"os"
	"strings"

	"chatbot-api/backend/pkg/config"
)

// Provider identifies a model provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// ResolveProvider determines the provider for a model, preferring an explicit
// configuration value and falling back to model-name patterns.
func ResolveProvider(explicit, model string) Provider {
	switch strings.ToLower(explicit) {
	case "anthropic":
		return ProviderAnthropic
	case "openai":
		return ProviderOpenAI
	}

	lower := strings.ToLower(model)
	if strings.HasPrefix(lower, "gpt-") || strings.HasPrefix(lower, "o1") || strings.HasPrefix(lower, "o3") || strings.HasPrefix(lower, "o4") {
		return ProviderOpenAI
	}

	// claude-* and anything unrecognized
	return ProviderAnthropic
}

// NewClientFromConfig builds the provider client for the configured model.
// A missing credential is a startup error; the process must not serve
// traffic without one.
//
// Environment variables used:
//
//	ANTHROPIC_API_KEY — Anthropic API key
//	OPENAI_API_KEY    — OpenAI API key
//	OPENAI_BASE_URL   — Custom OpenAI-compatible base URL
func NewClientFromConfig(cfg *config.Config) (Client, error) {
	provider := ResolveProvider(cfg.Model.Provider, cfg.Model.Name)

	switch provider {
	case ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set in environment")
		}
		if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
			return NewOpenAICompatibleClient(baseURL, apiKey), nil
		}
		return NewOpenAIClient(apiKey), nil

	default: // ProviderAnthropic
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set in environment")
		}
		return NewAnthropicClient(apiKey), nil
	}
}
