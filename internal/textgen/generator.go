// Package textgen wraps the chat-completion providers that produce
// example sentences and explanations. Providers share the Generator
// interface so the enrichment pipeline can be tested with fakes.
package textgen

import (
	"context"
	"fmt"
)

// Generator produces a completion for a prompt. One blocking call per
// note; any retry or rate limiting policy belongs to the provider client.
type Generator interface {
	// Complete sends the prompt to the given model and returns the raw
	// response text.
	Complete(ctx context.Context, model, prompt string) (string, error)

	// Name returns the provider name
	Name() string
}

// Config holds provider selection and credentials.
type Config struct {
	Provider  string // "openai" or "gemini"
	OpenAIKey string
	GeminiKey string
}

// NewGenerator creates the configured text generation provider. The
// returned client is process-scoped: construct once, inject everywhere.
func NewGenerator(config *Config) (Generator, error) {
	switch config.Provider {
	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIGenerator(config.OpenAIKey), nil

	case "gemini":
		if config.GeminiKey == "" {
			return nil, fmt.Errorf("Gemini API key is required")
		}
		return NewGeminiGenerator(config.GeminiKey)

	default:
		return nil, fmt.Errorf("unknown text provider: %s", config.Provider)
	}
}
