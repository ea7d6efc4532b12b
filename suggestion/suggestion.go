// Package suggestion defines completion candidates and the cursor that
// tracks which candidate is currently presented.
package suggestion

import "github.com/google/uuid"

// Position is a zero-based line/character location in a file.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position
	End   Position
}

// Suggestion is a single completion candidate produced by a provider.
type Suggestion struct {
	// ID uniquely identifies the suggestion for accept/reject reporting.
	ID string

	// Text is the replacement text to insert when accepted.
	Text string

	// Range is the span of the document the suggestion replaces.
	Range Range

	// Source names the provider that produced the suggestion.
	Source string
}

// New creates a suggestion with a generated ID.
func New(text string, rng Range, source string) Suggestion {
	return Suggestion{
		ID:     uuid.NewString(),
		Text:   text,
		Range:  rng,
		Source: source,
	}
}
