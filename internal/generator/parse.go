package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/bodul/autocross/internal/crossword"

	"github.com/microcosm-cc/bluemonday"
	"github.com/xeipuuv/gojsonschema"
)

// Row and col are "number" on purpose: a fractional coordinate must reach
// the typed decoder, which reports it as a shape error naming the word.
const layoutSchema = `{
  "type": "object",
  "required": ["title", "subject", "questions"],
  "properties": {
    "title":   {"type": "string"},
    "subject": {"type": "string"},
    "questions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["word", "clue", "direction", "row", "col"],
        "properties": {
          "word":      {"type": "string"},
          "clue":      {"type": "string"},
          "direction": {"type": "string"},
          "row":       {"type": "number"},
          "col":       {"type": "number"}
        }
      }
    }
  }
}`

const termsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["word", "definition"],
    "properties": {
      "word":       {"type": "string"},
      "definition": {"type": "string"}
    }
  }
}`

var (
	schemaOnce   sync.Once
	layoutLoader gojsonschema.JSONLoader
	termsLoader  gojsonschema.JSONLoader

	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func loaders() (layout, terms gojsonschema.JSONLoader) {
	schemaOnce.Do(func() {
		layoutLoader = gojsonschema.NewStringLoader(layoutSchema)
		termsLoader = gojsonschema.NewStringLoader(termsSchema)
	})
	return layoutLoader, termsLoader
}

// plainText strips any markup a model slipped into free text.
func plainText(s string) string {
	policyOnce.Do(func() { policy = bluemonday.StrictPolicy() })
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}

// cleanJSON recovers the JSON payload from a response wrapped in markdown
// fences or surrounded by prose.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if s == "" || s[0] == '{' || s[0] == '[' {
		return s
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return s
	}
	return s[start : end+1]
}

func checkSchema(schema gojsonschema.JSONLoader, doc string) error {
	res, err := gojsonschema.Validate(schema, gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidJSON, strings.Join(msgs, "; "))
	}
	return nil
}

// parseLayout decodes a layout response. A malformed coordinate surfaces as
// a *crossword.ShapeError, everything else that does not fit the schema as
// ErrInvalidJSON.
func parseLayout(raw string) (crossword.Result, error) {
	doc := cleanJSON(raw)
	schema, _ := loaders()
	if err := checkSchema(schema, doc); err != nil {
		return crossword.Result{}, err
	}

	var res crossword.Result
	if err := json.Unmarshal([]byte(doc), &res); err != nil {
		var se *crossword.ShapeError
		if errors.As(err, &se) {
			return crossword.Result{}, se
		}
		return crossword.Result{}, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	res.Title = plainText(res.Title)
	res.Subject = plainText(res.Subject)
	for i := range res.Questions {
		q := &res.Questions[i]
		q.Word = strings.ToUpper(strings.TrimSpace(q.Word))
		q.Clue = plainText(q.Clue)
	}
	return res, nil
}

// parseTerms decodes an extraction response, normalising words and dropping
// entries that could never be placed plus repeated words.
func parseTerms(raw string) ([]Term, error) {
	doc := cleanJSON(raw)
	_, schema := loaders()
	if err := checkSchema(schema, doc); err != nil {
		return nil, err
	}

	var in []Term
	if err := json.Unmarshal([]byte(doc), &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	seen := make(map[string]bool, len(in))
	out := make([]Term, 0, len(in))
	for _, t := range in {
		w := crossword.NormalizeWord(t.Word)
		if !crossword.ValidWord(w) || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, Term{Word: w, Definition: plainText(t.Definition)})
	}
	return out, nil
}
