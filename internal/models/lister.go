package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Catalog holds the OpenAI models relevant to deck enrichment, grouped
// by the pipeline stage they can serve.
type Catalog struct {
	Speech []string // text-to-speech models for the audio stage
	Chat   []string // completion models for the text stage
}

// Lister fetches and categorizes the OpenAI models usable with an API key
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister
func NewLister(apiKey string) *Lister {
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClient(apiKey),
	}
}

// Fetch retrieves the model list and sorts it into a Catalog.
func (l *Lister) Fetch(ctx context.Context) (*Catalog, error) {
	if l.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .cardfill.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	cat := &Catalog{}
	for _, model := range models.Models {
		switch {
		case strings.Contains(model.ID, "tts"), strings.Contains(model.ID, "audio"):
			cat.Speech = append(cat.Speech, model.ID)
		case strings.Contains(model.ID, "gpt"), strings.Contains(model.ID, "chat"):
			cat.Chat = append(cat.Chat, model.ID)
		}
	}
	sort.Strings(cat.Speech)
	sort.Strings(cat.Chat)

	return cat, nil
}

// Print writes the catalog in the format shown by --list-models.
func (c *Catalog) Print(w io.Writer) {
	fmt.Fprintln(w, "Available OpenAI Models:")

	fmt.Fprintln(w, "\nText-to-Speech Models (audio stage):")
	printGroup(w, c.Speech)

	fmt.Fprintln(w, "\nChat Models (sentence generation):")
	printGroup(w, c.Chat)
}

func printGroup(w io.Writer, models []string) {
	if len(models) == 0 {
		fmt.Fprintln(w, "  none found")
		return
	}
	for _, model := range models {
		fmt.Fprintf(w, "  %s\n", model)
	}
}

// ListAvailableModels fetches the catalog and prints it to stdout.
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	cat, err := l.Fetch(ctx)
	if err != nil {
		return err
	}
	cat.Print(w)
	return nil
}
