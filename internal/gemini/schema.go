package gemini

import (
	"github.com/bodul/autocross/internal/generator"

	"google.golang.org/genai"
)

var termsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"word":       {Type: genai.TypeString, Description: "Single word, 3-12 uppercase letters A-Z"},
			"definition": {Type: genai.TypeString},
		},
		Required:         []string{"word", "definition"},
		PropertyOrdering: []string{"word", "definition"},
	},
}

var layoutSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":   {Type: genai.TypeString},
		"subject": {Type: genai.TypeString},
		"questions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"word":      {Type: genai.TypeString},
					"clue":      {Type: genai.TypeString},
					"direction": {Type: genai.TypeString, Enum: []string{"across", "down"}},
					"row":       {Type: genai.TypeInteger},
					"col":       {Type: genai.TypeInteger},
				},
				Required:         []string{"word", "clue", "direction", "row", "col"},
				PropertyOrdering: []string{"word", "clue", "direction", "row", "col"},
			},
		},
	},
	Required:         []string{"title", "subject", "questions"},
	PropertyOrdering: []string{"title", "subject", "questions"},
}

func schemaFor(s generator.Stage) *genai.Schema {
	if s == generator.StageExtract {
		return termsSchema
	}
	return layoutSchema
}
