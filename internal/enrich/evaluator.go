package enrich

import "codeberg.org/snonux/cardfill/internal/collection"

// Stages reports which enrichment stages a note still needs.
type Stages struct {
	NeedsText  bool
	NeedsAudio bool
}

// Complete reports whether the note needs no work at all.
func (s Stages) Complete() bool {
	return !s.NeedsText && !s.NeedsAudio
}

// Evaluate derives the enrichment state from the note's current fields.
// The state is never cached: the collection is the sole source of truth
// and other processes may mutate it between runs.
func Evaluate(n *collection.Note) Stages {
	return Stages{
		NeedsText: n.Sentence == "" || n.Explanation == "",
		NeedsAudio: !collection.IsAttached(n.WordAudio) ||
			n.SentenceAudio == "" ||
			n.ExplanationAudio == "",
	}
}
