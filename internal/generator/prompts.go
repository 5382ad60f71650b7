package generator

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// invalidJSONFeedback is the fix request sent after an unparseable layout.
const invalidJSONFeedback = "The previous response was invalid JSON. Return valid JSON only, exactly matching the required schema, with no commentary."

// truncate cuts s to at most limit characters without splitting a rune.
func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func extractPrompt(req Request, want, contentLimit int) string {
	var b strings.Builder
	b.WriteString("You are an expert academic assessment designer.\n")
	if t := strings.TrimSpace(req.Topic); t != "" {
		fmt.Fprintf(&b, "Topic: %s\n", t)
	}
	if req.Attachment != nil {
		b.WriteString("Source material: the attached document")
		if strings.TrimSpace(req.Content) != "" {
			b.WriteString(" and the text below")
		}
		b.WriteString(".\n")
	} else {
		b.WriteString("Source material: the text below.\n")
	}

	fmt.Fprintf(&b, "\nTask: list %d key terms from the source material, each with a short definition.\n", want)
	b.WriteString("Rules:\n")
	b.WriteString("1. Only use technical terms, key concepts and academic vocabulary found in the source material.\n")
	b.WriteString("2. Do not use generic words or unrelated general knowledge.\n")
	b.WriteString("3. Each word must be a single word of 3 to 12 letters, uppercase A-Z only, no spaces, digits or punctuation.\n")
	b.WriteString("4. Definitions must come from how the source material defines or uses the term.\n")
	b.WriteString("5. Do not repeat a word.\n")

	if c := strings.TrimSpace(req.Content); c != "" {
		b.WriteString("\nSource text:\n")
		b.WriteString(truncate(c, contentLimit))
		b.WriteString("\n")
	}
	b.WriteString("\nOutput JSON only: an array of {\"word\", \"definition\"} objects.\n")
	return b.String()
}

func layoutPrompt(req Request, terms []Term, feedback string) string {
	var b strings.Builder
	b.WriteString("You are an expert crossword constructor.\n")
	if t := strings.TrimSpace(req.Topic); t != "" {
		fmt.Fprintf(&b, "Topic: %s\n", t)
	}
	fmt.Fprintf(&b, "\nTask: build a crossword of exactly %d words chosen from the candidate terms below.\n", req.Count)
	b.WriteString("Candidate terms:\n")
	for _, t := range terms {
		fmt.Fprintf(&b, "- %s: %s\n", t.Word, t.Definition)
	}

	b.WriteString("\nGrid rules:\n")
	b.WriteString("1. Every word is placed with a direction (\"across\" or \"down\") and the integer row and col of its first letter.\n")
	b.WriteString("2. An across word occupies (row, col+i); a down word occupies (row+i, col).\n")
	b.WriteString("3. Where two words share a cell they must have the same letter there.\n")
	b.WriteString("4. All letters must form one connected grid: every word has to cross or touch the rest of the grid.\n")
	b.WriteString("5. Write an educational clue for each word based on its definition. Never put the answer in its own clue.\n")
	b.WriteString("6. Also give the crossword a short title and the subject it covers.\n")

	if feedback != "" {
		b.WriteString("\nFIX REQUEST: the previous attempt was rejected with this error:\n")
		b.WriteString(feedback)
		b.WriteString("\nReturn a corrected layout that fixes it.\n")
	}

	b.WriteString("\nOutput JSON only: {\"title\", \"subject\", \"questions\": [{\"word\", \"clue\", \"direction\", \"row\", \"col\"}]}.\n")
	return b.String()
}
