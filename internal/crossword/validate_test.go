package crossword

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestValidateEndToEnd(t *testing.T) {
	r := Result{
		Title:   "Networking",
		Subject: "CS",
		Questions: []PlacedWord{
			{Word: "CODE", Clue: "Program text", Direction: Across, Row: 0, Col: 0},
			{Word: "OPEN", Clue: "Not closed", Direction: Down, Row: 0, Col: 1},
		},
	}
	if err := Validate(r); err != nil {
		t.Fatalf("expected valid grid, got %v", err)
	}
}

func TestValidateShape(t *testing.T) {
	cases := []string{"AB", "ABCDEFGHIJKLM", "cat", "CA7", "", "CAT DOG", "ÉTÉ"}
	for _, word := range cases {
		err := Validate(Result{Questions: []PlacedWord{{Word: word, Direction: Across}}})
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Kind != KindShape {
			t.Fatalf("word %q: expected shape error, got %v", word, err)
		}
		if !strings.Contains(ve.Error(), `"`+word+`"`) {
			t.Fatalf("word %q: message should name the word, got %q", word, ve.Error())
		}
	}

	for _, word := range []string{"CAT", "ABCDEFGHIJKL"} {
		if err := Validate(Result{Questions: []PlacedWord{{Word: word, Direction: Down}}}); err != nil {
			t.Fatalf("word %q: unexpected error %v", word, err)
		}
	}
}

func TestValidateShapeRunsBeforeGrid(t *testing.T) {
	// The second word conflicts with the first, but the third is malformed;
	// shape checks cover every word before any grid is built.
	err := Validate(Result{Questions: []PlacedWord{
		{Word: "CAT", Direction: Across},
		{Word: "DOG", Direction: Down},
		{Word: "no", Direction: Down, Row: 4},
	}})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Kind != KindShape {
		t.Fatalf("expected shape error, got %v", err)
	}
}

func TestValidateDirection(t *testing.T) {
	err := Validate(Result{Questions: []PlacedWord{{Word: "CAT", Direction: "diagonal"}}})
	var se *ShapeError
	if !errors.As(err, &se) || se.Word != "CAT" {
		t.Fatalf("expected shape error naming CAT, got %v", err)
	}
}

func TestValidateNonIntegerCoordinate(t *testing.T) {
	raw := `{"title":"t","subject":"s","questions":[
		{"word":"CAT","clue":"pet","direction":"across","row":0,"col":0},
		{"word":"TOP","clue":"summit","direction":"DOWN","row":0.5,"col":2}
	]}`
	var r Result
	err := json.Unmarshal([]byte(raw), &r)

	ve, ok := AsValidation(err)
	if !ok || ve.Kind != KindShape {
		t.Fatalf("expected shape error, got %v", err)
	}
	if !strings.Contains(ve.Error(), `"TOP"`) {
		t.Fatalf("message should name TOP, got %q", ve.Error())
	}
}

func TestDecodeRejectsHugeCoordinates(t *testing.T) {
	// Far apart words whose cell arithmetic would wrap around int64.
	raw := `{"questions":[
		{"word":"CAT","clue":"pet","direction":"across","row":0,"col":9223372036854775806},
		{"word":"DOG","clue":"pet","direction":"across","row":0,"col":-9223372036854775807}
	]}`
	var r Result
	err := json.Unmarshal([]byte(raw), &r)
	ve, ok := AsValidation(err)
	if !ok || ve.Kind != KindShape || !strings.Contains(ve.Error(), `"CAT"`) {
		t.Fatalf("expected shape error naming CAT, got %v", err)
	}

	if err := json.Unmarshal([]byte(`{"word":"CAT","direction":"across","row":2147483647,"col":-2147483647}`), new(PlacedWord)); err != nil {
		t.Fatalf("coordinates at the bound should decode: %v", err)
	}
}

func TestValidateRejectsHugeCoordinates(t *testing.T) {
	err := Validate(Result{Questions: []PlacedWord{
		{Word: "CAT", Direction: Across, Row: 0, Col: MaxCoord + 1},
	}})
	ve, ok := AsValidation(err)
	if !ok || ve.Kind != KindShape {
		t.Fatalf("expected shape error, got %v", err)
	}
}

func TestDecodeYAMLCoordinates(t *testing.T) {
	var r Result
	err := yaml.Unmarshal([]byte(`questions:
  - word: CAT
    clue: pet
    direction: ACROSS
    row: 2
    col: -1
`), &r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w := r.Questions[0]; w.Row != 2 || w.Col != -1 || w.Direction != Across {
		t.Fatalf("unexpected decode: %+v", w)
	}

	err = yaml.Unmarshal([]byte(`questions:
  - word: TOP
    clue: summit
    direction: down
    row: 0.5
    col: 2
`), &r)
	ve, ok := AsValidation(err)
	if !ok || ve.Kind != KindShape || !strings.Contains(ve.Error(), `"TOP"`) {
		t.Fatalf("expected shape error naming TOP, got %v", err)
	}
}

func TestDecodeAcceptsIntegralFloats(t *testing.T) {
	var w PlacedWord
	if err := json.Unmarshal([]byte(`{"word":"TOP","direction":"Down","row":2.0,"col":-3}`), &w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Row != 2 || w.Col != -3 || w.Direction != Down {
		t.Fatalf("unexpected decode: %+v", w)
	}
}

func TestValidateConflict(t *testing.T) {
	err := Validate(Result{Questions: []PlacedWord{
		{Word: "CAT", Direction: Across, Row: 0, Col: 0},
		{Word: "DOG", Direction: Down, Row: 0, Col: 0},
	}})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Kind != KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	for _, want := range []string{"row 0, col 0", `"DOG"`, `"CAT"`, "'D'", "'C'"} {
		if !strings.Contains(ve.Error(), want) {
			t.Fatalf("conflict message %q missing %q", ve.Error(), want)
		}
	}
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatal("validation error should unwrap to *ConflictError")
	}
}

func TestValidateMatchingCrossingIsNotConflict(t *testing.T) {
	// CAT and CAR both start with C at (0,0): a legal crossing.
	err := Validate(Result{Questions: []PlacedWord{
		{Word: "CAT", Direction: Across, Row: 0, Col: 0},
		{Word: "CAR", Direction: Down, Row: 0, Col: 0},
	}})
	if err != nil {
		t.Fatalf("expected valid crossing, got %v", err)
	}
}

func TestValidateDisconnected(t *testing.T) {
	err := Validate(Result{Questions: []PlacedWord{
		{Word: "CAT", Direction: Across, Row: 0, Col: 0},
		{Word: "DOG", Direction: Across, Row: 10, Col: 10},
	}})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Kind != KindDisconnected {
		t.Fatalf("expected disconnection, got %v", err)
	}
	if !strings.Contains(ve.Error(), "not fully connected") {
		t.Fatalf("unexpected message %q", ve.Error())
	}
}

func TestValidateAdjacencyConnects(t *testing.T) {
	// No shared cell, but CAT's last letter (0,2) touches DOG's first (0,3).
	// Connectivity follows adjacency of occupied cells, so this passes.
	err := Validate(Result{Questions: []PlacedWord{
		{Word: "CAT", Direction: Across, Row: 0, Col: 0},
		{Word: "DOG", Direction: Across, Row: 0, Col: 3},
	}})
	if err != nil {
		t.Fatalf("touching words should be connected, got %v", err)
	}

	// Diagonal contact is not adjacency.
	err = Validate(Result{Questions: []PlacedWord{
		{Word: "CAT", Direction: Across, Row: 0, Col: 0},
		{Word: "DOG", Direction: Across, Row: 1, Col: 3},
	}})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Kind != KindDisconnected {
		t.Fatalf("diagonal contact should be disconnected, got %v", err)
	}
}

func TestValidateEmpty(t *testing.T) {
	err := Validate(Result{})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Kind != KindEmpty {
		t.Fatalf("expected empty error, got %v", err)
	}
	if !errors.Is(err, ErrEmpty) {
		t.Fatal("empty error should wrap ErrEmpty")
	}
	if ve.Error() != "no words generated" {
		t.Fatalf("unexpected message %q", ve.Error())
	}
}

func TestTruncate(t *testing.T) {
	r := Result{Questions: []PlacedWord{{Word: "AAA"}, {Word: "BBB"}, {Word: "CCC"}}}

	got := r.Truncate(2)
	if len(got.Questions) != 2 || got.Questions[0].Word != "AAA" || got.Questions[1].Word != "BBB" {
		t.Fatalf("unexpected truncation: %+v", got.Questions)
	}
	got.Questions[0].Word = "ZZZ"
	if r.Questions[0].Word != "AAA" {
		t.Fatal("Truncate must not alias the original slice")
	}
	if n := len(r.Truncate(10).Questions); n != 3 {
		t.Fatalf("truncating above length should keep all, got %d", n)
	}
}
