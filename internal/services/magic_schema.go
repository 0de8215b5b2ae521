package services

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/foxxcyber/aisle-list/internal/models"
)

// MagicSchemaName is the name sent with the structured output format
const MagicSchemaName = "shopping_list_extraction_v3"

// MagicSystemPrompt is the system message of the vision request
const MagicSystemPrompt = "You are a grocery shopping list parser. Extract every distinct item from the photo of a shopping list. Preserve intent, separate quantity and notes, and classify every item using the provided store-layout scaffold."

const magicInstructions = `Return one object per item.
- Split multiple items on one line.
- Never invent unseen items.
- If uncertain, include your best guess and add warning text.
- list_title should be a short, natural shopping-run name (2-6 words). If one recipe/theme dominates, reflect it.
- list_title must be specific and memorable, never generic ("grocery run", "shopping list", "grocery and household run").
- category_hint should be the best coarse aisle bucket for compatibility.
- Choose major_section only from the scaffold section IDs.
- Choose subsection from the scaffold subsection labels when possible, else null.
- within_section_order must be a 1-based integer for the item's relative order inside its major section.

Scaffold (major sections and in-section ordering reference):
`

// MagicUserInstructions is the user message text, ending with the rendered scaffold
func MagicUserInstructions() string {
	return magicInstructions + PromptScaffold()
}

// MagicSchema is the JSON schema the vision model must answer with
func MagicSchema() map[string]any {
	categories := make([]any, 0, len(models.CategoryOrder)+1)
	for _, c := range models.CategoryOrder {
		categories = append(categories, string(c))
	}
	categories = append(categories, nil)

	sections := make([]any, 0, len(majorSections)+1)
	for _, id := range MajorSectionIDs() {
		sections = append(sections, id)
	}
	sections = append(sections, nil)

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"list_title", "items", "warnings"},
		"properties": map[string]any{
			"list_title": map[string]any{"type": []any{"string", "null"}},
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required": []any{
						"raw_text",
						"canonical_name",
						"quantity",
						"notes",
						"category_hint",
						"major_section",
						"subsection",
						"within_section_order",
					},
					"properties": map[string]any{
						"raw_text":             map[string]any{"type": "string"},
						"canonical_name":       map[string]any{"type": "string"},
						"quantity":             map[string]any{"type": []any{"string", "null"}},
						"notes":                map[string]any{"type": []any{"string", "null"}},
						"category_hint":        map[string]any{"type": []any{"string", "null"}, "enum": categories},
						"major_section":        map[string]any{"type": []any{"string", "null"}, "enum": sections},
						"subsection":           map[string]any{"type": []any{"string", "null"}},
						"within_section_order": map[string]any{"type": []any{"integer", "null"}, "minimum": 1},
					},
				},
			},
			"warnings": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	}
}

// MagicOutputFormat is the text.format block of the vision request
func MagicOutputFormat() map[string]any {
	return map[string]any{
		"type":   "json_schema",
		"name":   MagicSchemaName,
		"strict": true,
		"schema": MagicSchema(),
	}
}

// CompileMagicSchema compiles MagicSchema for response validation
func CompileMagicSchema() (*jsonschema.Schema, error) {
	b, err := json.Marshal(MagicSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("magic.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("magic.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
