package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/foxxcyber/aisle-list/internal/models"
)

var (
	ErrEmptyItemName   = errors.New("item name is empty")
	ErrInvalidCategory = errors.New("unknown category")
)

// Checklist is an ordered item set with its display sections
type Checklist struct {
	Lines    []string              `json:"lines"`
	Items    []models.ShoppingItem `json:"items"`
	Sections []models.Section      `json:"sections"`
}

// ListBuilder runs the text-to-checklist pipeline:
// split lines, parse quantity and notes, categorize, dedupe, order.
type ListBuilder struct {
	parser      *ShoppingListParser
	categorizer *Categorizer
	ordering    *OrderingEngine
}

// NewListBuilder creates a new list builder
func NewListBuilder(parser *ShoppingListParser, categorizer *Categorizer, ordering *OrderingEngine) *ListBuilder {
	return &ListBuilder{
		parser:      parser,
		categorizer: categorizer,
		ordering:    ordering,
	}
}

// NewListBuilderForRules wires the parser, categorizer and ordering engine over one rule set
func NewListBuilderForRules(rules *LayoutRules) *ListBuilder {
	return NewListBuilder(
		NewShoppingListParser(),
		NewCategorizer(NewCategorizationIndex(rules)),
		NewOrderingEngine(rules),
	)
}

// Parser returns the line parser
func (b *ListBuilder) Parser() *ShoppingListParser { return b.parser }

// Categorizer returns the categorization cascade
func (b *ListBuilder) Categorizer() *Categorizer { return b.categorizer }

// Ordering returns the ordering engine
func (b *ListBuilder) Ordering() *OrderingEngine { return b.ordering }

// BuildItems turns candidate lines into deduplicated items in first-seen order.
// Lines with no name left after quantity and notes are removed are dropped.
func (b *ListBuilder) BuildItems(lines []string, source models.ItemSource) []models.ShoppingItem {
	items := make([]models.ShoppingItem, 0, len(lines))
	for _, line := range lines {
		parsed := b.parser.ParseQuantityAndNotes(line)
		if parsed.Name == "" {
			continue
		}
		items = append(items, b.newItem(line, parsed, source))
	}
	return DedupeItems(items)
}

// BuildFromText runs the whole pipeline over typed or recognized text
func (b *ListBuilder) BuildFromText(text string, source models.ItemSource) Checklist {
	lines := b.parser.SplitLines(text)
	ordered := b.ordering.BuildOrderedItems(b.BuildItems(lines, source))
	return Checklist{
		Lines:    lines,
		Items:    ordered,
		Sections: b.ordering.BuildSections(ordered),
	}
}

// Finalize orders items and groups them into sections
func (b *ListBuilder) Finalize(items []models.ShoppingItem) Checklist {
	ordered := b.ordering.BuildOrderedItems(items)
	return Checklist{
		Items:    ordered,
		Sections: b.ordering.BuildSections(ordered),
	}
}

func (b *ListBuilder) newItem(line string, parsed models.ParsedLine, source models.ItemSource) models.ShoppingItem {
	categorized := b.categorizer.Categorize(parsed.Name)
	return models.ShoppingItem{
		ID:             uuid.NewString(),
		RawText:        line,
		CanonicalName:  categorized.CanonicalName,
		NormalizedName: categorized.NormalizedName,
		Quantity:       parsed.Quantity,
		Notes:          parsed.Notes,
		CategoryID:     categorized.CategoryID,
		SubcategoryID:  categorized.SubcategoryID,
		OrderHint:      categorized.OrderHint,
		Confidence:     categorized.Confidence,
		Source:         source,
	}
}

// PrepareItems readies client-supplied items for storage. A blank normalized
// name is derived again from the canonical name or raw text, an unknown
// category is recomputed, and missing or repeated IDs get fresh ones.
func (b *ListBuilder) PrepareItems(items []models.ShoppingItem) ([]models.ShoppingItem, error) {
	out := make([]models.ShoppingItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.NormalizedName) == "" {
			source := item.CanonicalName
			if strings.TrimSpace(source) == "" {
				source = b.parser.ParseQuantityAndNotes(item.RawText).Name
			}
			name := b.categorizer.Normalize(source)
			if name.NormalizedName == "" {
				return nil, ErrEmptyItemName
			}
			item.CanonicalName = name.CanonicalName
			item.NormalizedName = name.NormalizedName
		}
		if !item.CategoryID.Valid() {
			categorized := b.categorizer.Categorize(item.CanonicalName)
			item.CategoryID = categorized.CategoryID
			item.SubcategoryID = categorized.SubcategoryID
			item.OrderHint = categorized.OrderHint
			item.Confidence = categorized.Confidence
		}
		if _, dup := seen[item.ID]; dup || item.ID == "" {
			item.ID = uuid.NewString()
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out, nil
}

// EditItem applies a user edit to one item.
// A new name is re-categorized unless the category was overridden.
// Choosing a category marks the item overridden and drops its section placement.
func (b *ListBuilder) EditItem(item models.ShoppingItem, req models.UpdateListItemRequest) (models.ShoppingItem, error) {
	if req.CategoryID != nil && !req.CategoryID.Valid() {
		return item, ErrInvalidCategory
	}

	if req.Checked != nil {
		item.Checked = *req.Checked
	}
	if req.Quantity != nil {
		item.Quantity = trimmedOrNil(*req.Quantity)
	}
	if req.Notes != nil {
		item.Notes = trimmedOrNil(*req.Notes)
	}

	if req.CanonicalName != nil {
		name := b.categorizer.Normalize(*req.CanonicalName)
		if name.CanonicalName == "" {
			return item, ErrEmptyItemName
		}
		item.CanonicalName = name.CanonicalName
		item.NormalizedName = name.NormalizedName
		if !item.CategoryOverridden && req.CategoryID == nil {
			categorized := b.categorizer.Categorize(name.CanonicalName)
			item.CategoryID = categorized.CategoryID
			item.SubcategoryID = categorized.SubcategoryID
			item.OrderHint = categorized.OrderHint
			item.Confidence = categorized.Confidence
			item.ClearMajorSection()
		}
	}

	if req.CategoryID != nil {
		item.CategoryID = *req.CategoryID
		item.CategoryOverridden = true
		item.SubcategoryID = nil
		item.OrderHint = nil
		item.Confidence = ExactConfidence
		item.ClearMajorSection()
	}

	return item, nil
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
