package enrich

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/cardfill/internal/collection"
	"codeberg.org/snonux/cardfill/internal/profile"
	"codeberg.org/snonux/cardfill/internal/speech"
	"codeberg.org/snonux/cardfill/internal/textgen"
)

// NoteStore is the collection access the filler needs.
type NoteStore interface {
	FindNoteIDs(query string) ([]int64, error)
	GetNote(id int64) (*collection.Note, error)
	UpdateNote(n *collection.Note) error
	StoreMediaFile(name string, data []byte) error
}

// Options control run behavior outside the enrichment policy itself.
type Options struct {
	// ContinueOnError skips to the next note when a provider call or
	// response format fails; otherwise such a failure aborts the run.
	// Store write failures always abort.
	ContinueOnError bool

	// SortIDs enumerates notes in ascending note ID order instead of the
	// store's default order, for reproducible batches.
	SortIDs bool
}

// Filler walks a deck and fills missing enrichment stages until a quota
// of touched notes is reached.
type Filler struct {
	store     NoteStore
	generator textgen.Generator
	speech    speech.Provider
	profile   *profile.Profile
	opts      Options
}

// NewFiller creates a filler with injected providers.
func NewFiller(store NoteStore, generator textgen.Generator, speechProvider speech.Provider,
	prof *profile.Profile, opts Options) *Filler {
	return &Filler{
		store:     store,
		generator: generator,
		speech:    speechProvider,
		profile:   prof,
		opts:      opts,
	}
}

// Fill enriches under-filled notes in the profile's deck until exactly n
// notes have received at least one new stage, or the deck runs out.
// Fully enriched notes are skipped and do not count against the quota.
// Returns how many notes were touched; fewer than n is not an error.
func (f *Filler) Fill(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	ids, err := f.store.FindNoteIDs(f.profile.DeckQuery())
	if err != nil {
		return 0, err
	}
	if f.opts.SortIDs {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	count := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		note, err := f.store.GetNote(id)
		if err != nil {
			return count, err
		}

		stages := Evaluate(note)
		if stages.Complete() {
			continue
		}
		fmt.Printf("\nNote %d (%s)\n", note.ID, note.Word)

		touched := false
		if stages.NeedsText {
			if err := f.enrichText(ctx, note); err != nil {
				if f.abortsRun(err) {
					return count, fmt.Errorf("note %d: %w", id, err)
				}
				// Audio depends on the text fields, so the rest of this
				// note is skipped too.
				fmt.Fprintf(os.Stderr, "Skipping note %d: %v\n", id, err)
				continue
			}
			touched = true
		}

		if stages.NeedsAudio {
			completed, err := f.enrichAudio(ctx, note)
			if completed > 0 {
				touched = true
			}
			if err != nil {
				if touched {
					count++
				}
				if f.abortsRun(err) {
					return count, fmt.Errorf("note %d: %w", id, err)
				}
				fmt.Fprintf(os.Stderr, "Skipping note %d: %v\n", id, err)
				if count == n {
					break
				}
				continue
			}
			touched = true
		}

		if touched {
			count++
		}
		if count == n {
			break
		}
	}

	return count, nil
}

// abortsRun decides whether an error ends the whole run. Store write
// failures and an open circuit breaker always do; anything else follows
// the configured policy.
func (f *Filler) abortsRun(err error) bool {
	if errors.Is(err, ErrStoreWrite) || errors.Is(err, gobreaker.ErrOpenState) {
		return true
	}
	return !f.opts.ContinueOnError
}
