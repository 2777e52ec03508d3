package enrich

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/snonux/cardfill/internal/collection"
	"codeberg.org/snonux/cardfill/internal/speech"
)

// enrichText generates the example sentence and explanation with a single
// completion call and persists both fields together. On a malformed
// response nothing is written.
func (f *Filler) enrichText(ctx context.Context, note *collection.Note) error {
	fmt.Printf("  Generating sentence and explanation...\n")

	prompt := fmt.Sprintf(f.profile.Text.PromptTemplate, note.Word)
	response, err := f.generator.Complete(ctx, f.profile.Text.Model, prompt)
	if err != nil {
		return fmt.Errorf("text generation: %w", err)
	}

	sentence, explanation, err := splitGeneration(response, f.profile.Text.Delimiter)
	if err != nil {
		return err
	}

	note.Sentence = sentence
	note.Explanation = explanation
	if err := f.store.UpdateNote(note); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	return nil
}

// splitGeneration splits a model response on the delimiter, requiring
// exactly one occurrence and two non-empty segments.
func splitGeneration(response, delimiter string) (sentence, explanation string, err error) {
	if strings.Count(response, delimiter) != 1 {
		return "", "", &MalformedGenerationError{Delimiter: delimiter, Response: response}
	}
	sentence, explanation, _ = strings.Cut(response, delimiter)
	if sentence == "" || explanation == "" {
		return "", "", &MalformedGenerationError{Delimiter: delimiter, Response: response}
	}
	return sentence, explanation, nil
}

// audioSubStage describes one of the three audio generation steps. The
// order is fixed: word, then sentence, then explanation, since later
// steps voice text produced by the text stage.
type audioSubStage struct {
	name string
	done bool
	text string
	req  speech.Request
	set  func(string)
}

// enrichAudio runs the missing audio sub-stages in order, persisting the
// note after each one so a mid-note failure keeps whatever already
// completed. Returns how many sub-stages ran.
func (f *Filler) enrichAudio(ctx context.Context, note *collection.Note) (int, error) {
	policy := f.profile.Audio
	format := policy.Format
	if format == "" {
		format = "mp3"
	}

	subStages := []audioSubStage{
		{
			name: "word",
			done: collection.IsAttached(note.WordAudio),
			text: note.Word,
			req: speech.Request{
				Model:        policy.WordModel,
				Voice:        policy.Voice,
				LanguageCode: policy.WordLanguage,
				Format:       format,
			},
			set: func(ref string) { note.WordAudio = ref },
		},
		{
			name: "sentence",
			done: note.SentenceAudio != "",
			text: note.Sentence,
			req: speech.Request{
				Model:  policy.SentenceModel,
				Voice:  policy.Voice,
				Format: format,
			},
			set: func(ref string) { note.SentenceAudio = ref },
		},
		{
			name: "explanation",
			done: note.ExplanationAudio != "",
			text: note.Explanation,
			req: speech.Request{
				Model:        policy.ExplanationModel,
				Voice:        policy.Voice,
				LanguageCode: policy.ExplanationLanguage,
				Format:       format,
			},
			set: func(ref string) { note.ExplanationAudio = ref },
		},
	}

	completed := 0
	for _, sub := range subStages {
		if sub.done {
			continue
		}
		fmt.Printf("  Generating %s audio...\n", sub.name)

		audio, err := f.speech.Synthesize(ctx, sub.text, sub.req)
		if err != nil {
			return completed, fmt.Errorf("%s audio: %w", sub.name, err)
		}

		filename := fmt.Sprintf("%d_%s.%s", note.ID, sub.name, format)
		if err := f.store.StoreMediaFile(filename, audio); err != nil {
			return completed, fmt.Errorf("%w: %w", ErrStoreWrite, err)
		}

		sub.set(collection.SoundRef(filename))
		if err := f.store.UpdateNote(note); err != nil {
			return completed, fmt.Errorf("%w: %w", ErrStoreWrite, err)
		}
		completed++
	}
	return completed, nil
}
