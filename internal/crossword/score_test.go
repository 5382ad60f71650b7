package crossword

import "testing"

func TestScore(t *testing.T) {
	words := []PlacedWord{
		{Word: "CODE", Direction: Across, Row: 0, Col: 0},
		{Word: "OPEN", Direction: Down, Row: 0, Col: 1},
	}

	answers := map[string]string{
		"0-0": "C", "0-1": "o", "0-2": "D", "0-3": "E",
		"1-1": "P", "2-1": "E", "3-1": "X",
	}
	if got := Score(words, answers); got != 1 {
		t.Fatalf("expected 1 correct word, got %d", got)
	}

	answers["3-1"] = "N"
	if got := Score(words, answers); got != 2 {
		t.Fatalf("expected 2 correct words, got %d", got)
	}

	if got := Score(words, nil); got != 0 {
		t.Fatalf("expected 0 with no answers, got %d", got)
	}
}

func TestCellKey(t *testing.T) {
	if k := CellKey(Coord{3, 12}); k != "3-12" {
		t.Fatalf("unexpected key %q", k)
	}
}

func TestExtent(t *testing.T) {
	rows, cols := Extent([]PlacedWord{{Word: "CAT", Direction: Across}})
	if rows != 5 || cols != 5 {
		t.Fatalf("expected minimum 5x5, got %dx%d", rows, cols)
	}

	rows, cols = Extent([]PlacedWord{
		{Word: "ABCDEFG", Direction: Across, Row: 1, Col: 2},
		{Word: "CROSSWORD", Direction: Down, Row: 1, Col: 4},
	})
	if rows != 10 || cols != 9 {
		t.Fatalf("expected 10x9, got %dx%d", rows, cols)
	}

	// Negative anchors widen the span instead of being cut off.
	rows, cols = Extent([]PlacedWord{
		{Word: "ABCDEFG", Direction: Across, Row: -3, Col: -4},
		{Word: "CROSSWORD", Direction: Down, Row: -3, Col: -2},
	})
	if rows != 9 || cols != 7 {
		t.Fatalf("expected 9x7, got %dx%d", rows, cols)
	}
}

func TestAtOrigin(t *testing.T) {
	words := []PlacedWord{
		{Word: "CAT", Direction: Across, Row: -2, Col: 1},
		{Word: "TOP", Direction: Down, Row: -2, Col: 3},
	}
	got := AtOrigin(words)
	if got[0].Row != 0 || got[0].Col != 1 || got[1].Row != 0 || got[1].Col != 3 {
		t.Fatalf("unexpected shift: %+v", got)
	}
	if words[0].Row != -2 {
		t.Fatal("AtOrigin must not modify its input")
	}
	if err := ValidateWords(got); err != nil {
		t.Fatalf("shifted layout should stay valid: %v", err)
	}

	same := AtOrigin([]PlacedWord{{Word: "CAT", Direction: Across, Row: 1, Col: 2}})
	if same[0].Row != 1 || same[0].Col != 2 {
		t.Fatalf("non-negative layout should not move: %+v", same[0])
	}
}

func TestNormalizeWord(t *testing.T) {
	cases := map[string]string{
		"tcp/ip":   "TCPIP",
		" Router ": "ROUTER",
		"3g-net":   "GNET",
	}
	for in, want := range cases {
		if got := NormalizeWord(in); got != want {
			t.Fatalf("NormalizeWord(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseDirection(t *testing.T) {
	if d, ok := ParseDirection(" ACROSS "); !ok || d != Across {
		t.Fatalf("expected across, got %q %v", d, ok)
	}
	if _, ok := ParseDirection("sideways"); ok {
		t.Fatal("sideways is not a direction")
	}
}
