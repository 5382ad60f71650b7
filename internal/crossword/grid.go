package crossword

import "fmt"

// ConflictError reports two words placing different letters on one cell.
type ConflictError struct {
	At             Coord
	Word           string
	Letter         byte
	Existing       string
	ExistingLetter byte
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("letter conflict at row %d, col %d: %q places '%c' but %q already placed '%c' there",
		e.At.Row, e.At.Col, e.Word, e.Letter, e.Existing, e.ExistingLetter)
}

type cell struct {
	letter byte
	word   string
}

// Grid maps occupied coordinates to the letter placed there and the first
// word that claimed it. Build one with BuildGrid.
type Grid struct {
	cells   map[Coord]cell
	anchors []Coord
}

// BuildGrid replays every word's letters in input order. The first letter
// mismatch on a shared cell stops the build and is returned as a
// *ConflictError; matching letters on a shared cell are a valid crossing.
func BuildGrid(words []PlacedWord) (*Grid, error) {
	g := &Grid{
		cells:   make(map[Coord]cell),
		anchors: make([]Coord, 0, len(words)),
	}

	for _, w := range words {
		for i := 0; i < len(w.Word); i++ {
			at := w.Cell(i)
			letter := w.Word[i]

			existing, ok := g.cells[at]
			if !ok {
				g.cells[at] = cell{letter: letter, word: w.Word}
				continue
			}
			if existing.letter != letter {
				return nil, &ConflictError{
					At:             at,
					Word:           w.Word,
					Letter:         letter,
					Existing:       existing.word,
					ExistingLetter: existing.letter,
				}
			}
		}
		g.anchors = append(g.anchors, w.Anchor())
	}

	return g, nil
}

// Len returns the number of occupied cells.
func (g *Grid) Len() int { return len(g.cells) }

// Anchors returns each word's first-letter coordinate in input order.
func (g *Grid) Anchors() []Coord {
	out := make([]Coord, len(g.anchors))
	copy(out, g.anchors)
	return out
}

// Letter returns the letter at c, if any.
func (g *Grid) Letter(c Coord) (byte, bool) {
	cl, ok := g.cells[c]
	return cl.letter, ok
}

// Occupied reports whether any word claims c.
func (g *Grid) Occupied(c Coord) bool {
	_, ok := g.cells[c]
	return ok
}
