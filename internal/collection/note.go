package collection

import (
	"fmt"
	"strings"
)

// Required note type fields. A note type that lacks any of these cannot be
// enriched by cardfill.
const (
	FieldWord             = "word"
	FieldSentence         = "sentence"
	FieldExplanation      = "explanation"
	FieldWordAudio        = "word_audio"
	FieldSentenceAudio    = "sentence_audio"
	FieldExplanationAudio = "explanation_audio"
)

// RequiredFields lists the note type fields cardfill reads and writes,
// in canonical order.
var RequiredFields = []string{
	FieldWord,
	FieldSentence,
	FieldExplanation,
	FieldWordAudio,
	FieldSentenceAudio,
	FieldExplanationAudio,
}

// Note is a vocabulary note loaded from the collection. Word is owned by
// the deck import and never modified during enrichment; the remaining
// fields are filled in by the enrichment stages.
type Note struct {
	ID int64

	Word             string
	Sentence         string
	Explanation      string
	WordAudio        string
	SentenceAudio    string
	ExplanationAudio string

	guid string
	mid  int64
	tags string
	// Fields on the note type outside the enrichment schema, preserved
	// verbatim so updates round-trip.
	extras map[string]string
}

// NewNote creates a note with the given word and all enrichment fields
// empty. Mainly useful for constructing notes in tests and tooling; notes
// normally come out of Collection.GetNote.
func NewNote(id int64, word string) *Note {
	return &Note{ID: id, Word: word}
}

// Field returns the value of a named field.
func (n *Note) Field(name string) (string, error) {
	switch name {
	case FieldWord:
		return n.Word, nil
	case FieldSentence:
		return n.Sentence, nil
	case FieldExplanation:
		return n.Explanation, nil
	case FieldWordAudio:
		return n.WordAudio, nil
	case FieldSentenceAudio:
		return n.SentenceAudio, nil
	case FieldExplanationAudio:
		return n.ExplanationAudio, nil
	}
	if v, ok := n.extras[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("note %d has no field %q", n.ID, name)
}

func (n *Note) setField(name, value string) {
	switch name {
	case FieldWord:
		n.Word = value
	case FieldSentence:
		n.Sentence = value
	case FieldExplanation:
		n.Explanation = value
	case FieldWordAudio:
		n.WordAudio = value
	case FieldSentenceAudio:
		n.SentenceAudio = value
	case FieldExplanationAudio:
		n.ExplanationAudio = value
	default:
		if n.extras == nil {
			n.extras = make(map[string]string)
		}
		n.extras[name] = value
	}
}

// Normalize strips <br> markup from every field and lowercases the word,
// matching the deck import convention. Reports whether anything changed.
func (n *Note) Normalize() bool {
	changed := false
	strip := func(s string) string {
		return strings.ReplaceAll(s, "<br>", "")
	}
	apply := func(field *string, transform func(string) string) {
		if v := transform(*field); v != *field {
			*field = v
			changed = true
		}
	}
	apply(&n.Word, func(s string) string { return strings.ToLower(strip(s)) })
	apply(&n.Sentence, strip)
	apply(&n.Explanation, strip)
	apply(&n.WordAudio, strip)
	apply(&n.SentenceAudio, strip)
	apply(&n.ExplanationAudio, strip)
	for name, v := range n.extras {
		if s := strip(v); s != v {
			n.extras[name] = s
			changed = true
		}
	}
	return changed
}

// SoundRef builds the field markup referencing an attached media file.
func SoundRef(filename string) string {
	return fmt.Sprintf("[sound:%s]", filename)
}

// IsAttached reports whether an audio field carries an attachment
// reference. Some import paths leave provider-native handles in the field
// before a file is actually attached; those never start with the markup
// bracket, so a prefix check is sufficient.
func IsAttached(field string) bool {
	return strings.HasPrefix(field, "[")
}
