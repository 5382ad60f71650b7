// Package generator turns source material into a validated crossword by
// driving an AI model through term extraction and a bounded, feedback-driven
// layout retry loop.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bodul/autocross/internal/crossword"
)

// Stage tells the model which prompt and response shape a call uses.
type Stage int

const (
	StageExtract Stage = iota + 1
	StageLayout
)

func (s Stage) String() string {
	switch s {
	case StageExtract:
		return "extract"
	case StageLayout:
		return "layout"
	default:
		return "unknown"
	}
}

// Attachment is an optional source document sent inline with the prompt.
type Attachment struct {
	Data     []byte
	MIMEType string
}

// Call is one outbound model request.
type Call struct {
	Stage      Stage
	Prompt     string
	Attachment *Attachment
}

// Model is the AI collaborator. Generate returns the raw text of the first
// usable candidate, or an error wrapping ErrNoCandidate when the response was
// blocked or empty.
type Model interface {
	Generate(ctx context.Context, call Call) (string, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, call Call) (string, error)

func (f ModelFunc) Generate(ctx context.Context, call Call) (string, error) { return f(ctx, call) }

// Request is the input of one generation.
type Request struct {
	Topic      string
	Content    string
	Count      int
	Attachment *Attachment
}

// MaxCount bounds the number of words one request may ask for.
const MaxCount = 30

func (r Request) validate() error {
	if r.Count < 1 || r.Count > MaxCount {
		return fmt.Errorf("word count must be between 1 and %d, got %d", MaxCount, r.Count)
	}
	if strings.TrimSpace(r.Content) == "" && r.Attachment == nil && strings.TrimSpace(r.Topic) == "" {
		return errors.New("a topic, source content or document is required")
	}
	return nil
}

// Term is a candidate answer extracted from the source material. It never
// leaves the orchestrator.
type Term struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
}

var (
	// ErrNoCandidate marks a response with no usable candidate (safety
	// block, empty text).
	ErrNoCandidate = errors.New("no usable response from model")
	// ErrTimeout marks a model call that lost the race against the attempt timeout.
	ErrTimeout = errors.New("model call timed out")
	// ErrInvalidJSON marks a response that does not parse into the expected shape.
	ErrInvalidJSON = errors.New("invalid JSON response")
	// ErrExtraction marks the fatal, non-retried failure of term extraction.
	ErrExtraction = errors.New("term extraction failed")
)

// ExhaustedError is returned after every layout attempt failed. It wraps
// the last attempt's error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("crossword generation failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Result is what a successful generation returns.
type Result = crossword.Result
