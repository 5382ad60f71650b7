package crossword

import (
	"fmt"
	"strings"
)

// minExtent is the smallest grid side handed to solvers.
const minExtent = 5

// CellKey is the answer-map key for c, e.g. "3-7".
func CellKey(c Coord) string { return fmt.Sprintf("%d-%d", c.Row, c.Col) }

// Score counts the words whose cells, read from answers, spell the word
// exactly. Missing cells read as a space.
func Score(words []PlacedWord, answers map[string]string) int {
	score := 0
	for _, w := range words {
		var got strings.Builder
		for i := 0; i < len(w.Word); i++ {
			v := strings.ToUpper(strings.TrimSpace(answers[CellKey(w.Cell(i))]))
			if v == "" {
				v = " "
			}
			got.WriteString(v)
		}
		if got.String() == strings.ToUpper(w.Word) {
			score++
		}
	}
	return score
}

// Extent returns the rows and cols needed to draw words, never below 5x5.
// The span starts at row and col 0, or at the smallest negative coordinate.
func Extent(words []PlacedWord) (rows, cols int) {
	minR, minC, maxR, maxC := 0, 0, 0, 0
	for _, w := range words {
		if len(w.Word) == 0 {
			continue
		}
		end := w.Cell(len(w.Word) - 1)
		minR, minC = min(minR, w.Row), min(minC, w.Col)
		maxR, maxC = max(maxR, end.Row), max(maxC, end.Col)
	}
	return max(maxR-minR+1, minExtent), max(maxC-minC+1, minExtent)
}

// AtOrigin returns a copy of words moved down and right just enough that no
// coordinate is negative. Layouts already within the first quadrant are
// returned unchanged.
func AtOrigin(words []PlacedWord) []PlacedWord {
	minR, minC := 0, 0
	for _, w := range words {
		minR, minC = min(minR, w.Row), min(minC, w.Col)
	}
	out := make([]PlacedWord, len(words))
	for i, w := range words {
		w.Row -= minR
		w.Col -= minC
		out[i] = w
	}
	return out
}
