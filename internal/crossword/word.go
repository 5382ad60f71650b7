// Package crossword holds the crossword layout model: placed words, the
// derived letter grid, its connectivity check and the validator that turns
// both into a single pass/fail judgment with a diagnostic message.
package crossword

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Direction is the orientation of a placed word.
type Direction string

const (
	Across Direction = "across"
	Down   Direction = "down"
)

// ParseDirection accepts "across"/"down" in any case.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case Across:
		return Across, true
	case Down:
		return Down, true
	}
	return Direction(s), false
}

// UnmarshalText normalises the case of a direction. Unknown values are kept
// verbatim so the validator can name them.
func (d *Direction) UnmarshalText(b []byte) error {
	*d, _ = ParseDirection(string(b))
	return nil
}

// wordPattern is the shape every crossword answer must have.
var wordPattern = regexp.MustCompile(`^[A-Z]{3,12}$`)

// ValidWord reports whether s is 3 to 12 uppercase letters A-Z.
func ValidWord(s string) bool { return wordPattern.MatchString(s) }

// NormalizeWord upper-cases s and drops everything outside A-Z.
func NormalizeWord(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Coord is a zero-based grid coordinate.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.Row, c.Col) }

// neighbors returns the four orthogonal neighbours of c.
func (c Coord) neighbors() [4]Coord {
	return [4]Coord{
		{c.Row - 1, c.Col},
		{c.Row + 1, c.Col},
		{c.Row, c.Col - 1},
		{c.Row, c.Col + 1},
	}
}

// PlacedWord is one crossword entry, anchored at the cell of its first letter.
type PlacedWord struct {
	Word      string    `json:"word" yaml:"word"`
	Clue      string    `json:"clue" yaml:"clue"`
	Direction Direction `json:"direction" yaml:"direction"`
	Row       int       `json:"row" yaml:"row"`
	Col       int       `json:"col" yaml:"col"`
}

// Anchor returns the coordinate of the first letter.
func (w PlacedWord) Anchor() Coord { return Coord{w.Row, w.Col} }

// Cell returns the coordinate of the letter at index i.
func (w PlacedWord) Cell(i int) Coord {
	if w.Direction == Down {
		return Coord{w.Row + i, w.Col}
	}
	return Coord{w.Row, w.Col + i}
}

// UnmarshalJSON decodes a placed word and rejects coordinates that are not
// integers with a ShapeError naming the word.
func (w *PlacedWord) UnmarshalJSON(b []byte) error {
	var aux struct {
		Word      string      `json:"word"`
		Clue      string      `json:"clue"`
		Direction Direction   `json:"direction"`
		Row       json.Number `json:"row"`
		Col       json.Number `json:"col"`
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&aux); err != nil {
		return err
	}

	return w.assign(aux.Word, aux.Clue, aux.Direction, aux.Row, aux.Col)
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML layout files.
func (w *PlacedWord) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		Word      string    `yaml:"word"`
		Clue      string    `yaml:"clue"`
		Direction Direction `yaml:"direction"`
		Row       string    `yaml:"row"`
		Col       string    `yaml:"col"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	return w.assign(aux.Word, aux.Clue, aux.Direction, json.Number(aux.Row), json.Number(aux.Col))
}

func (w *PlacedWord) assign(word, clue string, dir Direction, rawRow, rawCol json.Number) error {
	row, rowOK := integer(rawRow)
	col, colOK := integer(rawCol)
	if !rowOK || !colOK {
		return &ShapeError{Word: word, Reason: fmt.Sprintf("row and col must be integers within ±%d, got row=%q col=%q", MaxCoord, rawRow, rawCol)}
	}
	*w = PlacedWord{Word: word, Clue: clue, Direction: dir, Row: row, Col: col}
	return nil
}

// MaxCoord bounds the absolute value of a row or col.
const MaxCoord = math.MaxInt32

func inRange(v int) bool { return v >= -MaxCoord && v <= MaxCoord }

// integer accepts 3 and 3.0 but not 3.5, "" or out-of-range values.
func integer(n json.Number) (int, bool) {
	if n == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(n.String()); err == nil {
		return v, inRange(v)
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > MaxCoord {
		return 0, false
	}
	return int(f), true
}

// Result is a generated or hand-entered crossword.
type Result struct {
	Title     string       `json:"title" yaml:"title"`
	Subject   string       `json:"subject" yaml:"subject"`
	Questions []PlacedWord `json:"questions" yaml:"questions"`
}

// Truncate returns a copy of r keeping at most n questions in their
// original order.
func (r Result) Truncate(n int) Result {
	if n < 0 || n >= len(r.Questions) {
		n = len(r.Questions)
	}
	qs := make([]PlacedWord, n)
	copy(qs, r.Questions[:n])
	r.Questions = qs
	return r
}
