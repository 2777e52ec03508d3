package processor

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"codeberg.org/snonux/cardfill/internal/cli"
	"codeberg.org/snonux/cardfill/internal/collection"
	"codeberg.org/snonux/cardfill/internal/enrich"
	"codeberg.org/snonux/cardfill/internal/maintenance"
	"codeberg.org/snonux/cardfill/internal/models"
	"codeberg.org/snonux/cardfill/internal/profile"
	"codeberg.org/snonux/cardfill/internal/speech"
	"codeberg.org/snonux/cardfill/internal/textgen"
)

// Processor handles the main enrichment run logic
type Processor struct {
	flags *cli.Flags
}

// NewProcessor creates a new run processor
func NewProcessor(flags *cli.Flags) *Processor {
	return &Processor{flags: flags}
}

// loadProfile resolves the deck profile and applies command line overrides.
func (p *Processor) loadProfile() (*profile.Profile, error) {
	prof, err := profile.Load(viper.GetViper(), p.flags.Profile)
	if err != nil {
		return nil, err
	}

	if p.flags.TextProvider != "" {
		prof.Text.Provider = p.flags.TextProvider
	}
	if p.flags.TextModel != "" {
		prof.Text.Model = p.flags.TextModel
	}
	if p.flags.AudioProvider != "" {
		prof.Audio.Provider = p.flags.AudioProvider
	}
	if p.flags.AudioFormat != "" {
		prof.Audio.Format = p.flags.AudioFormat
	}

	if err := prof.Validate(); err != nil {
		return nil, err
	}
	return prof, nil
}

// Run enriches up to n notes in the profile's deck.
func (p *Processor) Run(ctx context.Context, n int) error {
	prof, err := p.loadProfile()
	if err != nil {
		return err
	}

	col, err := collection.Open(p.flags.Collection)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}
	defer col.Close()

	generator, err := textgen.NewGenerator(&textgen.Config{
		Provider:  prof.Text.Provider,
		OpenAIKey: cli.GetOpenAIKey(),
		GeminiKey: cli.GetGeminiKey(),
	})
	if err != nil {
		return err
	}

	speechProvider, err := speech.NewProvider(&speech.Config{
		Provider:      prof.Audio.Provider,
		ElevenLabsKey: cli.GetElevenLabsKey(),
		OpenAIKey:     cli.GetOpenAIKey(),
		OpenAISpeed:   p.flags.OpenAISpeed,
	})
	if err != nil {
		return err
	}
	if err := speechProvider.IsAvailable(); err != nil {
		return fmt.Errorf("speech provider %s not available: %w", speechProvider.Name(), err)
	}

	filler := enrich.NewFiller(col, generator, speech.NewProviderWithBreaker(speechProvider),
		prof, enrich.Options{
			ContinueOnError: p.flags.OnError != "abort",
			SortIDs:         p.flags.SortIDs,
		})

	fmt.Printf("Filling up to %d notes in deck %q using %s/%s\n",
		n, prof.Deck, generator.Name(), speechProvider.Name())

	touched, err := filler.Fill(ctx, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nRun aborted after %d completed notes\n", touched)
		return err
	}

	fmt.Printf("\nDone! Completed %d of %d requested notes\n", touched, n)
	if touched < n {
		fmt.Println("Deck ran out of notes needing enrichment")
	}
	return nil
}

// Normalize cleans up the note fields of the profile's deck.
func (p *Processor) Normalize() error {
	prof, err := p.loadProfile()
	if err != nil {
		return err
	}

	col, err := collection.Open(p.flags.Collection)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}
	defer col.Close()

	changed, err := maintenance.NormalizeNotes(col, prof.Deck)
	if err != nil {
		return err
	}
	fmt.Printf("Normalized %d notes in deck %q\n", changed, prof.Deck)
	return nil
}

// PruneDuplicates removes duplicate cards from the profile's deck.
func (p *Processor) PruneDuplicates() error {
	prof, err := p.loadProfile()
	if err != nil {
		return err
	}

	col, err := collection.Open(p.flags.Collection)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}
	defer col.Close()

	removed, err := maintenance.PruneDuplicates(col, prof.Deck)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d duplicate cards from deck %q\n", removed, prof.Deck)
	return nil
}

// ListModels prints the OpenAI models usable with the configured API key.
func (p *Processor) ListModels(ctx context.Context) error {
	lister := models.NewLister(cli.GetOpenAIKey())
	return lister.ListAvailableModels(ctx, os.Stdout)
}
