package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapAndCodeOf(t *testing.T) {
	base := stderrs.New("disk on fire")
	err := Wrap(base, CodeDB, "insert response")

	if !stderrs.Is(err, base) {
		t.Fatal("wrapped error should unwrap to base")
	}
	if CodeOf(err) != CodeDB {
		t.Fatalf("expected CodeDB, got %d", CodeOf(err))
	}
	if err.Error() != "insert response: disk on fire" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if Message(err) != "insert response" {
		t.Fatalf("unexpected Message %q", Message(err))
	}

	outer := fmt.Errorf("handler: %w", err)
	if !Is(outer, CodeDB) {
		t.Fatal("code should survive fmt wrapping")
	}
	if Wrap(nil, CodeDB, "x") != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
	if CodeOf(base) != CodeUnknown {
		t.Fatal("plain errors have CodeUnknown")
	}
}

func TestHTTPStatusCode(t *testing.T) {
	cases := map[Code]int{
		CodeNotFound:        http.StatusNotFound,
		CodeDuplicateKey:    http.StatusConflict,
		CodeValidation:      http.StatusBadRequest,
		CodeInvalidArgument: http.StatusUnprocessableEntity,
		CodeForbidden:       http.StatusForbidden,
		CodeTooManyRequests: http.StatusTooManyRequests,
		CodeUnavailable:     http.StatusServiceUnavailable,
		CodeDB:              http.StatusInternalServerError,
		CodeUnknown:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := HTTPStatusCode(code); got != want {
			t.Fatalf("HTTPStatusCode(%d) = %d, want %d", code, got, want)
		}
	}
}

func TestWithOp(t *testing.T) {
	e := New(CodeNotFound, "assessment not found")
	labelled := e.WithOp("store.GetAssessment")
	if labelled.Op() != "store.GetAssessment" || e.Op() != "" {
		t.Fatal("WithOp should copy")
	}
}
