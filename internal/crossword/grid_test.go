package crossword

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildGridCrossing(t *testing.T) {
	g, err := BuildGrid([]PlacedWord{
		{Word: "CODE", Direction: Across, Row: 0, Col: 0},
		{Word: "OPEN", Direction: Down, Row: 0, Col: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Len() != 7 {
		t.Fatalf("expected 7 occupied cells, got %d", g.Len())
	}
	if l, ok := g.Letter(Coord{0, 1}); !ok || l != 'O' {
		t.Fatalf("expected 'O' at (0,1), got %q (ok=%v)", l, ok)
	}
	if l, _ := g.Letter(Coord{3, 1}); l != 'N' {
		t.Fatalf("expected 'N' at (3,1), got %q", l)
	}

	want := []Coord{{0, 0}, {0, 1}}
	if diff := cmp.Diff(want, g.Anchors()); diff != "" {
		t.Fatalf("anchors mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildGridConflict(t *testing.T) {
	_, err := BuildGrid([]PlacedWord{
		{Word: "CAT", Direction: Across, Row: 0, Col: 0},
		{Word: "DOG", Direction: Down, Row: 0, Col: 0},
		{Word: "XYZ", Direction: Down, Row: 0, Col: 2},
	})

	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	want := ConflictError{At: Coord{0, 0}, Word: "DOG", Letter: 'D', Existing: "CAT", ExistingLetter: 'C'}
	if diff := cmp.Diff(want, *ce); diff != "" {
		t.Fatalf("first conflict mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildGridNegativeCoordinates(t *testing.T) {
	g, err := BuildGrid([]PlacedWord{
		{Word: "SUN", Direction: Down, Row: -2, Col: -1},
		{Word: "BUN", Direction: Across, Row: -1, Col: -2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l, _ := g.Letter(Coord{-1, -1}); l != 'U' {
		t.Fatalf("expected shared cell to hold 'U', got %q", l)
	}
}

func TestAnchorsReturnsCopy(t *testing.T) {
	g, _ := BuildGrid([]PlacedWord{{Word: "CAT", Direction: Across}})
	a := g.Anchors()
	a[0] = Coord{9, 9}
	if g.Anchors()[0] != (Coord{0, 0}) {
		t.Fatal("Anchors should return a copy")
	}
}

func TestIsConnected(t *testing.T) {
	g, _ := BuildGrid([]PlacedWord{
		{Word: "CAT", Direction: Across, Row: 0, Col: 0},
		{Word: "DOG", Direction: Across, Row: 10, Col: 10},
	})
	ok, err := IsConnected(g, g.Anchors())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("two distant words must not be connected")
	}

	g, _ = BuildGrid([]PlacedWord{
		{Word: "CODE", Direction: Across, Row: 0, Col: 0},
		{Word: "OPEN", Direction: Down, Row: 0, Col: 1},
	})
	if ok, _ := IsConnected(g, g.Anchors()); !ok {
		t.Fatal("crossing words must be connected")
	}
}

func TestIsConnectedNoWords(t *testing.T) {
	g, _ := BuildGrid(nil)
	if _, err := IsConnected(g, nil); !errors.Is(err, ErrNoWords) {
		t.Fatalf("expected ErrNoWords, got %v", err)
	}
	if _, err := IsConnected(nil, []Coord{{0, 0}}); !errors.Is(err, ErrNoWords) {
		t.Fatalf("expected ErrNoWords for nil grid, got %v", err)
	}

	g, _ = BuildGrid([]PlacedWord{{Word: "CAT", Direction: Across}})
	if _, err := IsConnected(g, nil); !errors.Is(err, ErrNoWords) {
		t.Fatalf("expected ErrNoWords for empty anchors, got %v", err)
	}
}

func TestIsConnectedSeedsFromFirstAnchorOnly(t *testing.T) {
	g, _ := BuildGrid([]PlacedWord{
		{Word: "CAT", Direction: Across, Row: 0, Col: 0},
		{Word: "DOG", Direction: Across, Row: 5, Col: 0},
		{Word: "GUM", Direction: Down, Row: 5, Col: 2},
	})
	// DOG and GUM touch each other but not CAT.
	if ok, _ := IsConnected(g, g.Anchors()); ok {
		t.Fatal("a cluster unreachable from the first word must fail")
	}
	n, _ := reachable(g, g.Anchors())
	if n != 3 {
		t.Fatalf("expected only CAT's 3 cells reachable, got %d", n)
	}
}
