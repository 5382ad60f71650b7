package crossword

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure.
type Kind int

const (
	KindEmpty Kind = iota + 1
	KindShape
	KindConflict
	KindDisconnected
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindShape:
		return "shape"
	case KindConflict:
		return "conflict"
	case KindDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// ShapeError reports a malformed word or coordinate before any grid is built.
type ShapeError struct {
	Word   string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid word %q: %s", e.Word, e.Reason)
}

// ValidationError is the single error type Validate returns. Its message is
// meant to be read by people and fed back verbatim to the generator.
type ValidationError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrEmpty is wrapped by the validation error for a result with no words.
var ErrEmpty = errors.New("no words generated")

// Validate checks that every question has a legal shape, that words agree on
// every shared cell and that all occupied cells form one connected component.
// A nil return means the grid is valid.
func Validate(r Result) error {
	return ValidateWords(r.Questions)
}

// ValidateWords is Validate over a bare word list.
func ValidateWords(words []PlacedWord) error {
	if len(words) == 0 {
		return &ValidationError{Kind: KindEmpty, Msg: ErrEmpty.Error(), Err: ErrEmpty}
	}

	for _, w := range words {
		if err := checkShape(w); err != nil {
			return &ValidationError{Kind: KindShape, Msg: err.Error(), Err: err}
		}
	}

	g, err := BuildGrid(words)
	if err != nil {
		return &ValidationError{Kind: KindConflict, Msg: err.Error(), Err: err}
	}

	reached, err := reachable(g, g.Anchors())
	if err != nil {
		return &ValidationError{Kind: KindEmpty, Msg: ErrEmpty.Error(), Err: err}
	}
	if reached != g.Len() {
		return &ValidationError{
			Kind: KindDisconnected,
			Msg: fmt.Sprintf("grid is not fully connected: only %d of %d letter cells are reachable from %q; every word must cross the rest of the grid",
				reached, g.Len(), words[0].Word),
		}
	}

	return nil
}

func checkShape(w PlacedWord) error {
	if !ValidWord(w.Word) {
		return &ShapeError{Word: w.Word, Reason: "must be 3-12 uppercase letters A-Z"}
	}
	if w.Direction != Across && w.Direction != Down {
		return &ShapeError{Word: w.Word, Reason: fmt.Sprintf("direction %q must be across or down", w.Direction)}
	}
	if !inRange(w.Row) || !inRange(w.Col) {
		return &ShapeError{Word: w.Word, Reason: fmt.Sprintf("row and col must be within ±%d, got row=%d col=%d", MaxCoord, w.Row, w.Col)}
	}
	return nil
}

// AsValidation returns the *ValidationError in err's chain, wrapping a bare
// *ShapeError (as produced while decoding coordinates) when needed.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	var se *ShapeError
	if errors.As(err, &se) {
		return &ValidationError{Kind: KindShape, Msg: se.Error(), Err: se}, true
	}
	return nil, false
}
