package enrich

import (
	"errors"
	"fmt"
)

// ErrStoreWrite marks note store or media write failures. Every
// downstream invariant assumes writes succeed, so these abort the run
// regardless of the per-note error policy.
var ErrStoreWrite = errors.New("note store write failed")

// MalformedGenerationError reports a text model response that does not
// contain exactly one delimiter separating two non-empty segments. The
// note's text fields are left untouched when this is returned.
type MalformedGenerationError struct {
	Delimiter string
	Response  string
}

func (e *MalformedGenerationError) Error() string {
	return fmt.Sprintf("malformed generation: expected sentence%sexplanation, got %q",
		e.Delimiter, e.Response)
}
