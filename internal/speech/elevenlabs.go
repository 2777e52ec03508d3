package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultElevenLabsBaseURL = "https://api.elevenlabs.io"

// ElevenLabsProvider implements Provider against the ElevenLabs
// text-to-speech API.
type ElevenLabsProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewElevenLabsProvider creates an ElevenLabs TTS provider.
func NewElevenLabsProvider(apiKey string) *ElevenLabsProvider {
	return &ElevenLabsProvider{
		apiKey:  apiKey,
		baseURL: defaultElevenLabsBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type elevenLabsRequest struct {
	Text         string `json:"text"`
	ModelID      string `json:"model_id"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Synthesize requests speech for the text with the requested voice and
// model; the language code is only sent when the request carries one,
// since multilingual models reject it.
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string, req Request) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if req.Voice == "" {
		return nil, fmt.Errorf("voice ID is required")
	}

	body, err := json.Marshal(elevenLabsRequest{
		Text:         text,
		ModelID:      req.Model,
		LanguageCode: req.LanguageCode,
	})
	if err != nil {
		return nil, err
	}

	format := "mp3_44100_128"
	if req.Format == "wav" {
		format = "pcm_44100"
	}
	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", p.baseURL, req.Voice, format)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("xi-api-key", p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ElevenLabs API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ElevenLabs API returned %d: %s", resp.StatusCode, string(detail))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("no audio data received from ElevenLabs")
	}
	return audio, nil
}

// Name returns the provider name
func (p *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

// IsAvailable checks if the ElevenLabs API is accessible
func (p *ElevenLabsProvider) IsAvailable() error {
	if p.apiKey == "" {
		return fmt.Errorf("ElevenLabs API key not configured")
	}
	return nil
}
