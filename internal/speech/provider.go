// Package speech wraps the text-to-speech providers that voice words,
// sentences and explanations.
package speech

import (
	"context"
	"fmt"
)

// Request carries the per-call synthesis parameters. The exact subset a
// provider honors is provider-specific: ElevenLabs uses Model, Voice and
// LanguageCode; OpenAI TTS ignores LanguageCode.
type Request struct {
	Model        string
	Voice        string
	LanguageCode string // optional BCP-47 hint, empty for multilingual models
	Format       string // "mp3" or "wav"
}

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// Synthesize converts text to encoded audio bytes.
	Synthesize(ctx context.Context, text string, req Request) ([]byte, error)

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds common configuration for speech providers
type Config struct {
	Provider string // "elevenlabs" or "openai"

	ElevenLabsKey string

	OpenAIKey   string
	OpenAISpeed float64 // 0.25 to 4.0
}

// NewProvider creates the appropriate speech provider based on
// configuration. The returned client is process-scoped and safe to reuse
// across notes.
func NewProvider(config *Config) (Provider, error) {
	switch config.Provider {
	case "elevenlabs":
		if config.ElevenLabsKey == "" {
			return nil, fmt.Errorf("ElevenLabs API key is required")
		}
		return NewElevenLabsProvider(config.ElevenLabsKey), nil

	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config)

	default:
		return nil, fmt.Errorf("unknown speech provider: %s", config.Provider)
	}
}
