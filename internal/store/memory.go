package store

import (
	"context"
	"maps"
	"sync"
	"time"

	perr "github.com/bodul/autocross/internal/errors"
)

// Memory holds everything in process memory.
type Memory struct {
	mu          sync.RWMutex
	assessments map[string]*Assessment
	questions   map[string][]Question // by assessment
	responses   map[string][]Response // by assessment
	now         func() time.Time
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		assessments: make(map[string]*Assessment),
		questions:   make(map[string][]Question),
		responses:   make(map[string][]Response),
		now:         time.Now,
	}
}

// CreateAssessment saves a and its questions and returns the new ID.
func (s *Memory) CreateAssessment(_ context.Context, a Assessment, qs []Question) (string, error) {
	a.ID = newID()
	a.CreatedAt = s.now()
	if a.Deadline != nil {
		d := *a.Deadline
		a.Deadline = &d
	}

	saved := make([]Question, len(qs))
	for i, q := range qs {
		q.ID = newID()
		q.AssessmentID = a.ID
		saved[i] = q
	}

	s.mu.Lock()
	s.assessments[a.ID] = &a
	s.questions[a.ID] = saved
	s.mu.Unlock()

	return a.ID, nil
}

// GetAssessment returns an assessment and its questions in insertion order.
func (s *Memory) GetAssessment(_ context.Context, id string) (*Assessment, []Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := s.assessments[id]
	if a == nil {
		return nil, nil, perr.Newf(perr.CodeNotFound, "assessment not found: %s", id)
	}
	cp := *a
	return &cp, append([]Question{}, s.questions[id]...), nil
}

// AssessmentsByFaculty returns the faculty's assessments, most recent first.
func (s *Memory) AssessmentsByFaculty(_ context.Context, faculty string) ([]Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Assessment, 0)
	for a := range maps.Values(s.assessments) {
		if sameFaculty(a.FacultyName, faculty) {
			list = append(list, *a)
		}
	}
	// Sort by CreatedAt descending (simple insertion, small N).
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && list[j].CreatedAt.After(list[j-1].CreatedAt); j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
	return list, nil
}

// CreateResponse saves r. A roll number may submit once per assessment.
func (s *Memory) CreateResponse(_ context.Context, r Response) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.assessments[r.AssessmentID] == nil {
		return "", perr.Newf(perr.CodeNotFound, "assessment not found: %s", r.AssessmentID)
	}
	for _, existing := range s.responses[r.AssessmentID] {
		if existing.RollNumber == r.RollNumber {
			return "", perr.New(perr.CodeDuplicateKey, "you have already submitted this assessment")
		}
	}

	r.ID = newID()
	r.SubmittedAt = s.now()
	r.Answers = maps.Clone(r.Answers)
	s.responses[r.AssessmentID] = append(s.responses[r.AssessmentID], r)
	return r.ID, nil
}

// Responses returns an assessment's responses in submission order.
func (s *Memory) Responses(_ context.Context, assessmentID string) ([]Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Response{}, s.responses[assessmentID]...), nil
}

// Close is a no-op.
func (s *Memory) Close() error { return nil }
