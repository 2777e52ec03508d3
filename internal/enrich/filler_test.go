package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"codeberg.org/snonux/cardfill/internal/collection"
	"codeberg.org/snonux/cardfill/internal/profile"
	"codeberg.org/snonux/cardfill/internal/speech"
)

// fakeStore is an in-memory NoteStore.
type fakeStore struct {
	order     []int64
	notes     map[int64]*collection.Note
	media     map[string][]byte
	updateErr error
	mediaErr  error
	findErr   error
	updates   int
}

func newFakeStore(notes ...*collection.Note) *fakeStore {
	s := &fakeStore{
		notes: make(map[int64]*collection.Note),
		media: make(map[string][]byte),
	}
	for _, n := range notes {
		s.order = append(s.order, n.ID)
		s.notes[n.ID] = n
	}
	return s
}

func (s *fakeStore) FindNoteIDs(query string) ([]int64, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return append([]int64(nil), s.order...), nil
}

func (s *fakeStore) GetNote(id int64) (*collection.Note, error) {
	n, ok := s.notes[id]
	if !ok {
		return nil, fmt.Errorf("note not found: %d", id)
	}
	cp := *n
	return &cp, nil
}

func (s *fakeStore) UpdateNote(n *collection.Note) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates++
	cp := *n
	s.notes[n.ID] = &cp
	return nil
}

func (s *fakeStore) StoreMediaFile(name string, data []byte) error {
	if s.mediaErr != nil {
		return s.mediaErr
	}
	s.media[name] = data
	return nil
}

// fakeGenerator returns a canned completion.
type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (g *fakeGenerator) Complete(ctx context.Context, model, prompt string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func (g *fakeGenerator) Name() string { return "fake" }

// fakeSpeech synthesizes deterministic bytes and can fail from a given
// call number onward.
type fakeSpeech struct {
	failFrom int // 1-based call number; 0 never fails
	calls    int
	requests []speech.Request
	texts    []string
}

func (p *fakeSpeech) Synthesize(ctx context.Context, text string, req speech.Request) ([]byte, error) {
	p.calls++
	if p.failFrom > 0 && p.calls >= p.failFrom {
		return nil, errors.New("synthesis failed")
	}
	p.requests = append(p.requests, req)
	p.texts = append(p.texts, text)
	return []byte("audio:" + text), nil
}

func (p *fakeSpeech) Name() string       { return "fake" }
func (p *fakeSpeech) IsAvailable() error { return nil }

func testProfile() *profile.Profile {
	return &profile.Profile{
		Name: "french",
		Deck: "French Vocabulary",
		Text: profile.TextPolicy{
			Provider:       "openai",
			Model:          "gpt-4.1",
			PromptTemplate: "Word: %s",
			Delimiter:      "$",
		},
		Audio: profile.AudioPolicy{
			Provider:            "elevenlabs",
			Voice:               "test-voice",
			Format:              "mp3",
			WordModel:           "eleven_turbo_v2_5",
			SentenceModel:       "eleven_multilingual_v2",
			ExplanationModel:    "eleven_turbo_v2_5",
			WordLanguage:        "fr",
			ExplanationLanguage: "en",
		},
	}
}

func newTestFiller(store *fakeStore, gen *fakeGenerator, sp *fakeSpeech, opts Options) *Filler {
	return NewFiller(store, gen, sp, testProfile(), opts)
}

func TestFill_Scenario(t *testing.T) {
	store := newFakeStore(collection.NewNote(1, "maison"))
	gen := &fakeGenerator{response: "Elle habite dans une maison.$a dwelling one lives in"}
	sp := &fakeSpeech{}
	filler := newTestFiller(store, gen, sp, Options{ContinueOnError: true})

	count, err := filler.Fill(context.Background(), 1)
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Fill() = %d, want 1", count)
	}

	note := store.notes[1]
	if note.Sentence != "Elle habite dans une maison." {
		t.Errorf("Sentence = %q", note.Sentence)
	}
	if note.Explanation != "a dwelling one lives in" {
		t.Errorf("Explanation = %q", note.Explanation)
	}
	if note.WordAudio != "[sound:1_word.mp3]" {
		t.Errorf("WordAudio = %q", note.WordAudio)
	}
	if note.SentenceAudio != "[sound:1_sentence.mp3]" {
		t.Errorf("SentenceAudio = %q", note.SentenceAudio)
	}
	if note.ExplanationAudio != "[sound:1_explanation.mp3]" {
		t.Errorf("ExplanationAudio = %q", note.ExplanationAudio)
	}

	// Sub-stage order and voice parameters.
	wantTexts := []string{"maison", "Elle habite dans une maison.", "a dwelling one lives in"}
	for i, want := range wantTexts {
		if sp.texts[i] != want {
			t.Errorf("Synthesis call %d text = %q, want %q", i+1, sp.texts[i], want)
		}
	}
	if sp.requests[0].LanguageCode != "fr" {
		t.Errorf("Word language = %q, want fr", sp.requests[0].LanguageCode)
	}
	if sp.requests[1].LanguageCode != "" || sp.requests[1].Model != "eleven_multilingual_v2" {
		t.Errorf("Sentence request = %+v", sp.requests[1])
	}
	if sp.requests[2].LanguageCode != "en" {
		t.Errorf("Explanation language = %q, want en", sp.requests[2].LanguageCode)
	}

	for _, name := range []string{"1_word.mp3", "1_sentence.mp3", "1_explanation.mp3"} {
		if _, ok := store.media[name]; !ok {
			t.Errorf("Media file %s not stored", name)
		}
	}
}

func TestFill_Idempotence(t *testing.T) {
	store := newFakeStore(collection.NewNote(1, "maison"), collection.NewNote(2, "chien"))
	gen := &fakeGenerator{response: "Une phrase.$an explanation"}
	sp := &fakeSpeech{}
	filler := newTestFiller(store, gen, sp, Options{ContinueOnError: true})

	if count, err := filler.Fill(context.Background(), 5); err != nil || count != 2 {
		t.Fatalf("First Fill() = %d, %v", count, err)
	}

	genCalls, speechCalls := gen.calls, sp.calls
	count, err := filler.Fill(context.Background(), 5)
	if err != nil {
		t.Fatalf("Second Fill failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Second Fill() = %d, want 0", count)
	}
	if gen.calls != genCalls || sp.calls != speechCalls {
		t.Error("Second run performed redundant provider calls")
	}
}

func TestFill_QuotaExactness(t *testing.T) {
	notes := make([]*collection.Note, 5)
	for i := range notes {
		notes[i] = collection.NewNote(int64(i+1), fmt.Sprintf("mot%d", i+1))
	}
	store := newFakeStore(notes...)
	gen := &fakeGenerator{response: "Une phrase.$an explanation"}
	filler := newTestFiller(store, gen, &fakeSpeech{}, Options{ContinueOnError: true})

	count, err := filler.Fill(context.Background(), 3)
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Fill() = %d, want 3", count)
	}
	// Notes beyond the quota stay untouched.
	if store.notes[4].Sentence != "" || store.notes[5].Sentence != "" {
		t.Error("Notes past the quota were enriched")
	}
}

func TestFill_QuotaShortfall(t *testing.T) {
	store := newFakeStore(collection.NewNote(1, "maison"), collection.NewNote(2, "chien"))
	gen := &fakeGenerator{response: "Une phrase.$an explanation"}
	filler := newTestFiller(store, gen, &fakeSpeech{}, Options{ContinueOnError: true})

	count, err := filler.Fill(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Fill() = %d, want 2", count)
	}
}

func TestFill_StageIndependence(t *testing.T) {
	textOnly := collection.NewNote(1, "maison")
	textOnly.Sentence = "Elle habite dans une maison."
	textOnly.Explanation = "a dwelling one lives in"
	done := fullyEnriched(2, "chien")
	fresh := collection.NewNote(3, "chat")

	store := newFakeStore(textOnly, done, fresh)
	gen := &fakeGenerator{response: "Une phrase.$an explanation"}
	sp := &fakeSpeech{}
	filler := newTestFiller(store, gen, sp, Options{ContinueOnError: true})

	count, err := filler.Fill(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	// The fully enriched note is skipped without counting.
	if count != 2 {
		t.Errorf("Fill() = %d, want 2", count)
	}
	// Note 1 needed audio only; note 3 needed both.
	if gen.calls != 1 {
		t.Errorf("Generator calls = %d, want 1", gen.calls)
	}
	if sp.calls != 6 {
		t.Errorf("Synthesis calls = %d, want 6", sp.calls)
	}
	if store.notes[1].Sentence != "Elle habite dans une maison." {
		t.Error("Existing text was overwritten")
	}
}

func TestFill_PartialDurability(t *testing.T) {
	store := newFakeStore(collection.NewNote(1, "maison"))
	gen := &fakeGenerator{response: "Une phrase.$an explanation"}
	sp := &fakeSpeech{failFrom: 2} // word succeeds, sentence fails
	filler := newTestFiller(store, gen, sp, Options{ContinueOnError: true})

	count, err := filler.Fill(context.Background(), 5)
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	// The note received real work, so it counts.
	if count != 1 {
		t.Errorf("Fill() = %d, want 1", count)
	}

	note := store.notes[1]
	if note.WordAudio != "[sound:1_word.mp3]" {
		t.Errorf("Word audio lost after mid-note failure: %q", note.WordAudio)
	}
	if note.SentenceAudio != "" || note.ExplanationAudio != "" {
		t.Error("Failed sub-stages must not write fields")
	}
	if _, ok := store.media["1_word.mp3"]; !ok {
		t.Error("Word audio file not persisted")
	}
}

func TestFill_FormatViolationContainment(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"zero delimiters", "Une phrase sans séparateur"},
		{"two delimiters", "Une phrase.$explication$reste"},
		{"empty explanation", "Une phrase.$"},
		{"empty sentence", "$an explanation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(collection.NewNote(1, "maison"))
			gen := &fakeGenerator{response: tt.response}
			sp := &fakeSpeech{}
			filler := newTestFiller(store, gen, sp, Options{ContinueOnError: true})

			count, err := filler.Fill(context.Background(), 1)
			if err != nil {
				t.Fatalf("Fill failed: %v", err)
			}
			if count != 0 {
				t.Errorf("Fill() = %d, want 0", count)
			}

			note := store.notes[1]
			if note.Sentence != "" || note.Explanation != "" {
				t.Errorf("Text fields mutated on malformed response: %q / %q",
					note.Sentence, note.Explanation)
			}
			// The rest of the note is skipped too.
			if sp.calls != 0 {
				t.Errorf("Audio ran after text failure (%d calls)", sp.calls)
			}
		})
	}
}

func TestFill_MalformedGenerationErrorType(t *testing.T) {
	store := newFakeStore(collection.NewNote(1, "maison"))
	gen := &fakeGenerator{response: "no delimiter here"}
	filler := newTestFiller(store, gen, &fakeSpeech{}, Options{})

	_, err := filler.Fill(context.Background(), 1)
	var malformed *MalformedGenerationError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedGenerationError, got %v", err)
	}
	if !strings.Contains(malformed.Error(), "no delimiter here") {
		t.Errorf("Error should carry the response: %v", malformed)
	}
}

func TestFill_AbortPolicy(t *testing.T) {
	t.Run("abort stops the run", func(t *testing.T) {
		store := newFakeStore(collection.NewNote(1, "maison"), collection.NewNote(2, "chien"))
		gen := &fakeGenerator{err: errors.New("provider down")}
		filler := newTestFiller(store, gen, &fakeSpeech{}, Options{ContinueOnError: false})

		count, err := filler.Fill(context.Background(), 5)
		if err == nil {
			t.Fatal("Expected error in abort mode")
		}
		if count != 0 {
			t.Errorf("Fill() = %d, want 0", count)
		}
		if gen.calls != 1 {
			t.Errorf("Generator calls = %d, want 1", gen.calls)
		}
	})

	t.Run("continue skips to the next note", func(t *testing.T) {
		store := newFakeStore(collection.NewNote(1, "maison"), collection.NewNote(2, "chien"))
		gen := &fakeGenerator{err: errors.New("provider down")}
		filler := newTestFiller(store, gen, &fakeSpeech{}, Options{ContinueOnError: true})

		count, err := filler.Fill(context.Background(), 5)
		if err != nil {
			t.Fatalf("Fill failed: %v", err)
		}
		if count != 0 {
			t.Errorf("Fill() = %d, want 0", count)
		}
		if gen.calls != 2 {
			t.Errorf("Generator calls = %d, want 2", gen.calls)
		}
	})
}

func TestFill_StoreWriteAlwaysFatal(t *testing.T) {
	store := newFakeStore(collection.NewNote(1, "maison"), collection.NewNote(2, "chien"))
	store.updateErr = errors.New("disk full")
	gen := &fakeGenerator{response: "Une phrase.$an explanation"}
	filler := newTestFiller(store, gen, &fakeSpeech{}, Options{ContinueOnError: true})

	_, err := filler.Fill(context.Background(), 5)
	if !errors.Is(err, ErrStoreWrite) {
		t.Fatalf("Expected ErrStoreWrite, got %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("Run continued past a store write failure (%d calls)", gen.calls)
	}
}

func TestFill_SortIDs(t *testing.T) {
	store := newFakeStore(
		collection.NewNote(3, "chat"),
		collection.NewNote(1, "maison"),
		collection.NewNote(2, "chien"),
	)
	gen := &fakeGenerator{response: "Une phrase.$an explanation"}
	filler := newTestFiller(store, gen, &fakeSpeech{}, Options{ContinueOnError: true, SortIDs: true})

	count, err := filler.Fill(context.Background(), 1)
	if err != nil || count != 1 {
		t.Fatalf("Fill() = %d, %v", count, err)
	}
	// With sorting, note 1 goes first despite store order.
	if store.notes[1].Sentence == "" {
		t.Error("Expected note 1 to be enriched first")
	}
	if store.notes[3].Sentence != "" {
		t.Error("Note 3 should not be touched")
	}
}

func TestFill_ZeroQuota(t *testing.T) {
	store := newFakeStore(collection.NewNote(1, "maison"))
	gen := &fakeGenerator{response: "Une phrase.$an explanation"}
	filler := newTestFiller(store, gen, &fakeSpeech{}, Options{})

	count, err := filler.Fill(context.Background(), 0)
	if err != nil || count != 0 {
		t.Errorf("Fill(0) = %d, %v", count, err)
	}
	if gen.calls != 0 {
		t.Error("Zero quota must not call providers")
	}
}

func TestFill_ContextCancellation(t *testing.T) {
	store := newFakeStore(collection.NewNote(1, "maison"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	filler := newTestFiller(store, &fakeGenerator{}, &fakeSpeech{}, Options{})
	count, err := filler.Fill(ctx, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if count != 0 {
		t.Errorf("Fill() = %d, want 0", count)
	}
}

func TestSplitGeneration(t *testing.T) {
	tests := []struct {
		name        string
		response    string
		wantErr     bool
		sentence    string
		explanation string
	}{
		{
			name:        "valid",
			response:    "Elle habite dans une maison.$a dwelling one lives in",
			sentence:    "Elle habite dans une maison.",
			explanation: "a dwelling one lives in",
		},
		{"zero delimiters", "no separator", true, "", ""},
		{"two delimiters", "a$b$c", true, "", ""},
		{"empty sentence", "$b", true, "", ""},
		{"empty explanation", "a$", true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sentence, explanation, err := splitGeneration(tt.response, "$")
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitGeneration() error = %v, wantErr %v", err, tt.wantErr)
			}
			if sentence != tt.sentence || explanation != tt.explanation {
				t.Errorf("splitGeneration() = %q, %q", sentence, explanation)
			}
		})
	}
}
