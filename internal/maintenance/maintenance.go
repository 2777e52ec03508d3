// Package maintenance holds the deck housekeeping operations that run
// outside the enrichment pipeline: duplicate card pruning and note field
// normalization.
package maintenance

import (
	"fmt"

	"codeberg.org/snonux/cardfill/internal/collection"
)

// NormalizeNotes strips stray markup from every note in the deck and
// lowercases the word field, persisting each changed note immediately.
// Returns the number of notes changed.
func NormalizeNotes(col *collection.Collection, deck string) (int, error) {
	ids, err := col.FindNoteIDs(fmt.Sprintf("deck:%s", deck))
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, id := range ids {
		note, err := col.GetNote(id)
		if err != nil {
			return changed, err
		}
		if !note.Normalize() {
			continue
		}
		if err := col.UpdateNote(note); err != nil {
			return changed, fmt.Errorf("failed to persist note %d: %w", id, err)
		}
		changed++
	}
	return changed, nil
}

// PruneDuplicates removes every non-first card in the deck together with
// notes left without cards. Returns the number of cards removed.
func PruneDuplicates(col *collection.Collection, deck string) (int, error) {
	removed, err := col.RemoveDuplicateCards(deck)
	if err != nil {
		return 0, fmt.Errorf("failed to prune duplicates: %w", err)
	}
	return removed, nil
}
