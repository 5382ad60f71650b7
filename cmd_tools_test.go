package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bodul/autocross/internal/crossword"
	"github.com/spf13/cobra"
)

const layoutYAML = `title: Basics
subject: CS
questions:
  - word: code
    clue: Program text
    direction: ACROSS
    row: 0
    col: 0
  - word: OPEN
    clue: Not closed
    direction: down
    row: 0
    col: 1
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func runValidateCmd(path string) (string, error) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	err := runValidate(cmd, []string{path})
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	for name, path := range map[string]string{
		"json": writeFile(t, "layout.json", layoutJSON),
		"yaml": writeFile(t, "layout.yaml", layoutYAML),
	} {
		t.Run(name, func(t *testing.T) {
			out, err := runValidateCmd(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(out, "valid: 2 words on a 5x5 grid") {
				t.Fatalf("unexpected output %q", out)
			}
		})
	}
}

func TestValidateCommandRejects(t *testing.T) {
	bad := strings.Replace(layoutYAML, "row: 0\n    col: 1", "row: 4\n    col: 4", 1)
	_, err := runValidateCmd(writeFile(t, "bad.yml", bad))
	ve, ok := crossword.AsValidation(err)
	if !ok || ve.Kind != crossword.KindDisconnected {
		t.Fatalf("expected disconnected validation error, got %v", err)
	}

	_, err = runValidateCmd(writeFile(t, "frac.json", `{"questions":[{"word":"CAT","clue":"c","direction":"across","row":0.5,"col":0}]}`))
	if ve, ok := crossword.AsValidation(err); !ok || ve.Kind != crossword.KindShape {
		t.Fatalf("expected shape error, got %v", err)
	}

	fracYAML := strings.Replace(layoutYAML, "row: 0\n    col: 1", "row: 0.5\n    col: 1", 1)
	_, err = runValidateCmd(writeFile(t, "frac.yaml", fracYAML))
	if ve, ok := crossword.AsValidation(err); !ok || ve.Kind != crossword.KindShape || !strings.Contains(ve.Error(), `"OPEN"`) {
		t.Fatalf("expected shape error naming OPEN, got %v", err)
	}

	if _, err := runValidateCmd(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file should fail")
	}
}
