package main

import (
	"encoding/csv"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bodul/autocross/internal/bind"
	"github.com/bodul/autocross/internal/crossword"
	perr "github.com/bodul/autocross/internal/errors"
	"github.com/bodul/autocross/internal/logger"
	"github.com/bodul/autocross/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// cleanText strips markup from hand-entered text.
func cleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// --- Layout check ---

type validationResponse struct {
	Valid bool   `json:"valid"`
	Rows  int    `json:"rows,omitempty"`
	Cols  int    `json:"cols,omitempty"`
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error,omitempty"`
}

// writeInvalid answers 422 when err is a layout failure and reports whether
// it did.
func writeInvalid(w http.ResponseWriter, err error) bool {
	ve, ok := crossword.AsValidation(err)
	if !ok {
		return false
	}
	writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Kind: ve.Kind.String(), Error: ve.Error()})
	return true
}

func normalizeWords(words []crossword.PlacedWord) []crossword.PlacedWord {
	out := make([]crossword.PlacedWord, len(words))
	for i, q := range words {
		q.Word = strings.ToUpper(strings.TrimSpace(q.Word))
		q.Clue = cleanText(q.Clue)
		out[i] = q
	}
	return out
}

// handleValidate checks a hand-entered layout before it is published.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, bind.MaxBytes))
	if err != nil {
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	var res crossword.Result
	if err := json.Unmarshal(body, &res); err != nil {
		if writeInvalid(w, err) {
			return
		}
		jsonError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	res.Questions = normalizeWords(res.Questions)
	if err := crossword.Validate(res); err != nil {
		writeInvalid(w, err)
		return
	}
	rows, cols := crossword.Extent(res.Questions)
	writeJSON(w, http.StatusOK, validationResponse{Valid: true, Rows: rows, Cols: cols})
}

// --- Assessments ---

type createAssessmentRequest struct {
	Title        string                 `json:"title" validate:"required,max=200"`
	Subject      string                 `json:"subject" validate:"max=200"`
	FacultyName  string                 `json:"faculty_name" validate:"required,max=100"`
	ClassSection string                 `json:"class_section" validate:"max=100"`
	Deadline     *time.Time             `json:"deadline"`
	Questions    []crossword.PlacedWord `json:"questions" validate:"required,min=1,max=30"`
}

func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	req, err := bind.JSON[createAssessmentRequest](r)
	if err != nil {
		if writeInvalid(w, err) {
			return
		}
		writeError(w, r, err)
		return
	}

	words := normalizeWords(req.Questions)
	if err := crossword.ValidateWords(words); err != nil {
		writeInvalid(w, err)
		return
	}
	// Stored cells are non-negative so answer keys and the drawn grid agree.
	words = crossword.AtOrigin(words)

	a := store.Assessment{
		Title:        cleanText(req.Title),
		Subject:      cleanText(req.Subject),
		FacultyName:  strings.TrimSpace(req.FacultyName),
		ClassSection: strings.TrimSpace(req.ClassSection),
		Deadline:     req.Deadline,
	}
	id, err := s.store.CreateAssessment(r.Context(), a, store.QuestionsFrom(words))
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.C(r.Context()).Info().Str("assessment", id).Int("words", len(words)).Msg("assessment published")
	w.Header().Set("Location", "/api/assessments/"+id)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type questionView struct {
	ID        string              `json:"id"`
	Number    int                 `json:"number"`
	Word      string              `json:"word,omitempty"`
	Clue      string              `json:"clue"`
	Direction crossword.Direction `json:"direction"`
	Row       int                 `json:"row"`
	Col       int                 `json:"col"`
	Length    int                 `json:"length"`
}

type assessmentView struct {
	store.Assessment
	Rows      int            `json:"rows"`
	Cols      int            `json:"cols"`
	Closed    bool           `json:"closed"`
	Questions []questionView `json:"questions"`
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	a, qs, err := s.store.GetAssessment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	reveal, _ := strconv.ParseBool(r.URL.Query().Get("reveal"))

	view := assessmentView{
		Assessment: *a,
		Closed:     a.Closed(s.now()),
		Questions:  make([]questionView, len(qs)),
	}
	view.Rows, view.Cols = crossword.Extent(store.PlacedWords(qs))
	for i, q := range qs {
		qv := questionView{
			ID:        q.ID,
			Number:    i + 1,
			Clue:      q.Clue,
			Direction: q.Direction,
			Row:       q.Row,
			Col:       q.Col,
			Length:    len(q.Word),
		}
		if reveal {
			qv.Word = q.Word
		}
		view.Questions[i] = qv
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	faculty := strings.TrimSpace(r.URL.Query().Get("faculty"))
	if faculty == "" {
		writeError(w, r, perr.New(perr.CodeValidation, "faculty is required"))
		return
	}
	list, err := s.store.AssessmentsByFaculty(r.Context(), faculty)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assessments": list})
}

// --- Responses ---

type submitRequest struct {
	RollNumber  string            `json:"roll_number" validate:"required,max=50"`
	StudentName string            `json:"student_name" validate:"required,max=100"`
	Answers     map[string]string `json:"answers" validate:"max=1000"`
	TimeTaken   int               `json:"time_taken" validate:"gte=0"`
}

func (s *Server) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	if !s.submitRL.allow(clientIP(r)) {
		writeError(w, r, perr.New(perr.CodeTooManyRequests, "too many submissions, try again later"))
		return
	}
	req, err := bind.JSON[submitRequest](r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, qs, err := s.store.GetAssessment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if a.Closed(s.now()) {
		writeError(w, r, perr.New(perr.CodeForbidden, "this assessment is closed"))
		return
	}

	resp := store.Response{
		AssessmentID:   a.ID,
		RollNumber:     strings.TrimSpace(req.RollNumber),
		StudentName:    cleanText(req.StudentName),
		Answers:        req.Answers,
		Score:          crossword.Score(store.PlacedWords(qs), req.Answers),
		TotalQuestions: len(qs),
		TimeTaken:      req.TimeTaken,
	}
	if resp.Answers == nil {
		resp.Answers = map[string]string{}
	}
	id, err := s.store.CreateResponse(r.Context(), resp)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.C(r.Context()).Info().
		Str("assessment", a.ID).
		Int("score", resp.Score).
		Int("total", resp.TotalQuestions).
		Msg("response submitted")
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":              id,
		"score":           resp.Score,
		"total_questions": resp.TotalQuestions,
	})
}

func (s *Server) responsesOf(r *http.Request) (*store.Assessment, []store.Response, error) {
	a, _, err := s.store.GetAssessment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, err
	}
	list, err := s.store.Responses(r.Context(), a.ID)
	if err != nil {
		return nil, nil, err
	}
	return a, list, nil
}

func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request) {
	_, list, err := s.responsesOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": list})
}

var csvHeader = []string{"Roll Number", "Name", "Score", "Total Questions", "Time Taken (s)", "Submitted At"}

func (s *Server) handleExportResponses(w http.ResponseWriter, r *http.Request) {
	a, list, err := s.responsesOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="responses-`+a.ID+`.csv"`)
	cw := csv.NewWriter(w)
	cw.Write(csvHeader)
	for _, resp := range list {
		cw.Write([]string{
			resp.RollNumber,
			resp.StudentName,
			strconv.Itoa(resp.Score),
			strconv.Itoa(resp.TotalQuestions),
			strconv.Itoa(resp.TimeTaken),
			resp.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logger.C(r.Context()).Warn().Err(err).Msg("csv export interrupted")
	}
}
