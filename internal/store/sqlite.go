package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	perr "github.com/bodul/autocross/internal/errors"

	"github.com/mattn/go-sqlite3"
)

// SQLite stores everything in one sqlite database file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		subject TEXT NOT NULL,
		faculty_name TEXT NOT NULL,
		faculty_key TEXT NOT NULL,
		class_section TEXT NOT NULL DEFAULT '',
		deadline DATETIME,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS assessments_faculty ON assessments (faculty_key, created_at)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		assessment_id TEXT NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		word TEXT NOT NULL,
		clue TEXT NOT NULL,
		direction TEXT NOT NULL CHECK (direction IN ('across', 'down')),
		row INTEGER NOT NULL,
		col INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS responses (
		id TEXT PRIMARY KEY,
		assessment_id TEXT NOT NULL REFERENCES assessments(id) ON DELETE CASCADE,
		roll_number TEXT NOT NULL,
		student_name TEXT NOT NULL DEFAULT '',
		answers_json TEXT NOT NULL,
		score INTEGER NOT NULL,
		total_questions INTEGER NOT NULL,
		time_taken INTEGER NOT NULL DEFAULT 0,
		submitted_at DATETIME NOT NULL,
		UNIQUE (assessment_id, roll_number)
	)`,
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", withPragmas(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLite{db: db, now: time.Now}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func withPragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func (s *SQLite) createTables(ctx context.Context) error {
	for _, query := range schema {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateAssessment inserts a and its questions in one transaction.
func (s *SQLite) CreateAssessment(ctx context.Context, a Assessment, qs []Question) (string, error) {
	a.ID = newID()
	a.CreatedAt = s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", perr.Wrap(err, perr.CodeDB, "begin transaction")
	}
	defer tx.Rollback()

	var deadline sql.NullTime
	if a.Deadline != nil {
		deadline = sql.NullTime{Time: a.Deadline.UTC(), Valid: true}
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO assessments (id, title, subject, faculty_name, faculty_key, class_section, deadline, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		a.ID, a.Title, a.Subject, a.FacultyName, facultyKey(a.FacultyName), a.ClassSection, deadline, a.CreatedAt,
	)
	if err != nil {
		return "", perr.Wrap(err, perr.CodeDB, "failed to create assessment")
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO questions (id, assessment_id, position, word, clue, direction, row, col) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return "", perr.Wrap(err, perr.CodeDB, "prepare question insert")
	}
	defer stmt.Close()
	for i, q := range qs {
		if _, err := stmt.ExecContext(ctx, newID(), a.ID, i, q.Word, q.Clue, string(q.Direction), q.Row, q.Col); err != nil {
			return "", perr.Wrap(err, perr.CodeDB, fmt.Sprintf("failed to create question %d", i))
		}
	}

	if err := tx.Commit(); err != nil {
		return "", perr.Wrap(err, perr.CodeDB, "commit assessment")
	}
	return a.ID, nil
}

const assessmentColumns = "id, title, subject, faculty_name, class_section, deadline, created_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row scanner) (Assessment, error) {
	var (
		a        Assessment
		deadline sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Title, &a.Subject, &a.FacultyName, &a.ClassSection, &deadline, &a.CreatedAt); err != nil {
		return Assessment{}, err
	}
	if deadline.Valid {
		t := deadline.Time
		a.Deadline = &t
	}
	return a, nil
}

// GetAssessment returns an assessment and its questions in insertion order.
func (s *SQLite) GetAssessment(ctx context.Context, id string) (*Assessment, []Question, error) {
	a, err := scanAssessment(s.db.QueryRowContext(ctx,
		"SELECT "+assessmentColumns+" FROM assessments WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, perr.Newf(perr.CodeNotFound, "assessment not found: %s", id)
		}
		return nil, nil, perr.Wrap(err, perr.CodeDB, "failed to get assessment")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, assessment_id, word, clue, direction, row, col FROM questions WHERE assessment_id = ? ORDER BY position", id)
	if err != nil {
		return nil, nil, perr.Wrap(err, perr.CodeDB, "failed to get questions")
	}
	defer rows.Close()

	qs := []Question{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.AssessmentID, &q.Word, &q.Clue, &q.Direction, &q.Row, &q.Col); err != nil {
			return nil, nil, perr.Wrap(err, perr.CodeDB, "failed to scan question")
		}
		qs = append(qs, q)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, perr.Wrap(err, perr.CodeDB, "failed to read questions")
	}
	return &a, qs, nil
}

// AssessmentsByFaculty returns the faculty's assessments, most recent first.
// Names are matched on a Go-folded key since NOCASE only folds ASCII.
func (s *SQLite) AssessmentsByFaculty(ctx context.Context, faculty string) ([]Assessment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+assessmentColumns+" FROM assessments WHERE faculty_key = ? ORDER BY created_at DESC, rowid DESC",
		facultyKey(faculty))
	if err != nil {
		return nil, perr.Wrap(err, perr.CodeDB, "failed to list assessments")
	}
	defer rows.Close()

	list := []Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, perr.Wrap(err, perr.CodeDB, "failed to scan assessment")
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrap(err, perr.CodeDB, "failed to read assessments")
	}
	return list, nil
}

// CreateResponse saves r. A roll number may submit once per assessment.
func (s *SQLite) CreateResponse(ctx context.Context, r Response) (string, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM assessments WHERE id = ?", r.AssessmentID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return "", perr.Newf(perr.CodeNotFound, "assessment not found: %s", r.AssessmentID)
	}
	if err != nil {
		return "", perr.Wrap(err, perr.CodeDB, "failed to check assessment")
	}

	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return "", perr.Wrap(err, perr.CodeJSON, "encode answers")
	}

	r.ID = newID()
	r.SubmittedAt = s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO responses (id, assessment_id, roll_number, student_name, answers_json, score, total_questions, time_taken, submitted_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.AssessmentID, r.RollNumber, r.StudentName, string(answers), r.Score, r.TotalQuestions, r.TimeTaken, r.SubmittedAt,
	)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return "", perr.New(perr.CodeDuplicateKey, "you have already submitted this assessment")
		}
		return "", perr.Wrap(err, perr.CodeDB, "failed to create response")
	}
	return r.ID, nil
}

// Responses returns an assessment's responses in submission order.
func (s *SQLite) Responses(ctx context.Context, assessmentID string) ([]Response, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, assessment_id, roll_number, student_name, answers_json, score, total_questions, time_taken, submitted_at FROM responses WHERE assessment_id = ? ORDER BY submitted_at, rowid",
		assessmentID)
	if err != nil {
		return nil, perr.Wrap(err, perr.CodeDB, "failed to get responses")
	}
	defer rows.Close()

	list := []Response{}
	for rows.Next() {
		var (
			r       Response
			answers string
		)
		if err := rows.Scan(&r.ID, &r.AssessmentID, &r.RollNumber, &r.StudentName, &answers, &r.Score, &r.TotalQuestions, &r.TimeTaken, &r.SubmittedAt); err != nil {
			return nil, perr.Wrap(err, perr.CodeDB, "failed to scan response")
		}
		if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return nil, perr.Wrap(err, perr.CodeDB, "failed to decode answers")
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, perr.Wrap(err, perr.CodeDB, "failed to read responses")
	}
	return list, nil
}
