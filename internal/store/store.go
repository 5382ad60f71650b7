// Package store persists published assessments, their questions and
// student responses.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bodul/autocross/internal/config"
	"github.com/bodul/autocross/internal/crossword"

	"github.com/google/uuid"
)

// Assessment is a published crossword.
type Assessment struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Subject      string     `json:"subject"`
	FacultyName  string     `json:"faculty_name"`
	ClassSection string     `json:"class_section,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Closed reports whether the deadline has passed at now.
func (a Assessment) Closed(now time.Time) bool {
	return a.Deadline != nil && now.After(*a.Deadline)
}

// Question is one placed word of an assessment.
type Question struct {
	ID           string              `json:"id"`
	AssessmentID string              `json:"assessment_id"`
	Word         string              `json:"word"`
	Clue         string              `json:"clue"`
	Direction    crossword.Direction `json:"direction"`
	Row          int                 `json:"row"`
	Col          int                 `json:"col"`
}

// Placed returns the question as a grid word.
func (q Question) Placed() crossword.PlacedWord {
	return crossword.PlacedWord{Word: q.Word, Clue: q.Clue, Direction: q.Direction, Row: q.Row, Col: q.Col}
}

// QuestionsFrom converts grid words to unsaved questions.
func QuestionsFrom(words []crossword.PlacedWord) []Question {
	out := make([]Question, len(words))
	for i, w := range words {
		out[i] = Question{Word: w.Word, Clue: w.Clue, Direction: w.Direction, Row: w.Row, Col: w.Col}
	}
	return out
}

// PlacedWords converts questions back to grid words.
func PlacedWords(qs []Question) []crossword.PlacedWord {
	out := make([]crossword.PlacedWord, len(qs))
	for i, q := range qs {
		out[i] = q.Placed()
	}
	return out
}

// Response is one student's submission.
type Response struct {
	ID             string            `json:"id"`
	AssessmentID   string            `json:"assessment_id"`
	RollNumber     string            `json:"roll_number"`
	StudentName    string            `json:"student_name"`
	Answers        map[string]string `json:"answers"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"total_questions"`
	TimeTaken      int               `json:"time_taken"` // seconds
	SubmittedAt    time.Time         `json:"submitted_at"`
}

// Store is the persistence contract. Missing rows yield a CodeNotFound
// error; a second response for the same assessment and roll number yields
// CodeDuplicateKey.
type Store interface {
	CreateAssessment(ctx context.Context, a Assessment, qs []Question) (string, error)
	GetAssessment(ctx context.Context, id string) (*Assessment, []Question, error)
	// AssessmentsByFaculty matches the faculty name case-insensitively,
	// newest first.
	AssessmentsByFaculty(ctx context.Context, faculty string) ([]Assessment, error)
	CreateResponse(ctx context.Context, r Response) (string, error)
	Responses(ctx context.Context, assessmentID string) ([]Response, error)
	Close() error
}

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func newID() string { return uuid.NewString() }

// facultyKey is the case-folded form faculty names are matched on.
func facultyKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sameFaculty(a, b string) bool { return facultyKey(a) == facultyKey(b) }
