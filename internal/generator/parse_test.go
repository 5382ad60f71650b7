package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"prose", `Sure! Here it is: {"a":{"b":2}} Hope it helps.`, `{"a":{"b":2}}`},
		{"no json", `nothing here`, `nothing here`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, cleanJSON(c.in))
		})
	}
}

func TestParseTermsNormalises(t *testing.T) {
	terms, err := parseTerms(termsJSON)
	require.NoError(t, err)
	assert.Equal(t, []Term{
		{Word: "CODE", Definition: "Instructions for a computer"},
		{Word: "OPEN", Definition: "Not closed"},
		{Word: "DATA", Definition: "Recorded facts"},
	}, terms)
}

func TestParseTermsSchema(t *testing.T) {
	_, err := parseTerms(`[{"word":"CODE"}]`)
	require.ErrorIs(t, err, ErrInvalidJSON)
	_, err = parseTerms(`{"terms":[]}`)
	require.ErrorIs(t, err, ErrInvalidJSON)
}

func TestParseLayoutSanitises(t *testing.T) {
	res, err := parseLayout(`{"title":"<b>Nets</b>","subject":"CS","questions":[
	  {"word":" code ","clue":"Tom's <script>alert(1)</script>program","direction":"Across","row":0,"col":0}]}`)
	require.NoError(t, err)
	assert.Equal(t, "Nets", res.Title)
	require.Len(t, res.Questions, 1)
	q := res.Questions[0]
	assert.Equal(t, "CODE", q.Word)
	assert.Equal(t, "Tom's program", q.Clue)
	assert.Equal(t, "across", string(q.Direction))
}

func TestParseLayoutMissingField(t *testing.T) {
	_, err := parseLayout(`{"title":"t","subject":"s","questions":[{"word":"CODE","clue":"c","direction":"across","row":0}]}`)
	require.ErrorIs(t, err, ErrInvalidJSON)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abcdef", 3))
	assert.Equal(t, "ab", truncate("ab", 3))
	assert.Equal(t, "éé", truncate("ééé", 2))
}
