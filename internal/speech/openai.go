package speech

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider for OpenAI TTS. OpenAI models detect
// the input language themselves, so the request's language code is not
// used.
type OpenAIProvider struct {
	client *openai.Client
	speed  float64
}

// NewOpenAIProvider creates a new OpenAI TTS provider
func NewOpenAIProvider(config *Config) (Provider, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	speed := config.OpenAISpeed
	if speed == 0 {
		speed = 1.0
	}
	return &OpenAIProvider{
		client: openai.NewClient(config.OpenAIKey),
		speed:  speed,
	}, nil
}

// Synthesize generates audio using OpenAI TTS
func (p *OpenAIProvider) Synthesize(ctx context.Context, text string, req Request) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	speechReq := openai.CreateSpeechRequest{
		Model: openai.SpeechModel(req.Model),
		Input: text,
		Voice: openai.SpeechVoice(req.Voice),
		Speed: p.speed,
	}
	switch req.Format {
	case "wav":
		speechReq.ResponseFormat = openai.SpeechResponseFormatWav
	default:
		speechReq.ResponseFormat = openai.SpeechResponseFormatMp3
	}

	response, err := p.client.CreateSpeech(ctx, speechReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	audio, err := io.ReadAll(response)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("no audio data received from OpenAI")
	}
	return audio, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the OpenAI API is accessible
func (p *OpenAIProvider) IsAvailable() error {
	// A test API call would use credits; having a client is enough here.
	if p.client == nil {
		return fmt.Errorf("OpenAI client not configured")
	}
	return nil
}
