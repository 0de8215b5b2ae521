package services

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/foxxcyber/aisle-list/internal/models"
)

// MagicConfidence is the confidence given to vision-model items
const MagicConfidence = 0.95

// Items without a within-section position sort after positioned ones
const unpositionedSectionOrder = 999

// MagicMapper converts vision-model item candidates into checklist items
type MagicMapper struct {
	parser      *ShoppingListParser
	categorizer *Categorizer
	rules       *LayoutRules
}

// NewMagicMapper creates a new magic mapper
func NewMagicMapper(parser *ShoppingListParser, categorizer *Categorizer, rules *LayoutRules) *MagicMapper {
	return &MagicMapper{
		parser:      parser,
		categorizer: categorizer,
		rules:       rules,
	}
}

// MapItems maps model candidates to items, dropping those without a name.
// The model's own spelling is kept as the display name.
func (m *MagicMapper) MapItems(candidates []models.MagicItem) []models.ShoppingItem {
	items := make([]models.ShoppingItem, 0, len(candidates))
	for _, c := range candidates {
		if item, ok := m.mapItem(c); ok {
			items = append(items, item)
		}
	}
	return items
}

func (m *MagicMapper) mapItem(c models.MagicItem) (models.ShoppingItem, bool) {
	name := strings.TrimSpace(c.CanonicalName)
	if name == "" {
		name = strings.TrimSpace(c.RawText)
	}
	if name == "" {
		return models.ShoppingItem{}, false
	}

	parsed := m.parser.ParseQuantityAndNotes(name)
	if parsed.Name == "" {
		return models.ShoppingItem{}, false
	}

	normalized := m.categorizer.Normalize(parsed.Name)
	categorized := m.categorizer.Categorize(parsed.Name)

	rawText := c.RawText
	if strings.TrimSpace(rawText) == "" {
		rawText = name
	}

	item := models.ShoppingItem{
		ID:             uuid.NewString(),
		RawText:        rawText,
		CanonicalName:  normalized.CanonicalName,
		NormalizedName: categorized.NormalizedName,
		Quantity:       preferModel(c.Quantity, parsed.Quantity),
		Notes:          preferModel(c.Notes, parsed.Notes),
		CategoryID:     categorized.CategoryID,
		SubcategoryID:  categorized.SubcategoryID,
		OrderHint:      categorized.OrderHint,
		Confidence:     MagicConfidence,
		Source:         models.SourceMagic,
	}

	var section *MajorSection
	if c.MajorSection != nil {
		if s, ok := LookupMajorSection(*c.MajorSection); ok {
			section = &s
			item.CategoryID = s.Category
		}
	}

	hint := ""
	if c.CategoryHint != nil {
		hint = strings.TrimSpace(*c.CategoryHint)
		if models.CategoryID(hint).Valid() {
			item.CategoryID = models.CategoryID(hint)
		}
	}

	if section != nil {
		within := withinSectionOrder(c.WithinSectionOrder)
		position := unpositionedSectionOrder
		if within != nil {
			position = *within
		}
		item.MajorSectionID = stringPtr(section.ID)
		item.MajorSectionLabel = stringPtr(section.Label)
		item.MajorSectionOrder = intPtr(section.Rank)
		item.MajorSectionItemOrder = within
		item.OrderHint = intPtr(section.Rank*1000 + position)
		if c.Subsection != nil && strings.TrimSpace(*c.Subsection) != "" {
			item.MajorSubsection = stringPtr(strings.TrimSpace(*c.Subsection))
		}
	}

	if hint == string(models.CategoryOther) || m.rules.IsErrand(rawText) || m.rules.IsErrand(name) {
		item.CategoryID = models.CategoryOther
		item.SubcategoryID = nil
		item.OrderHint = nil
		item.ClearMajorSection()
	}

	return item, true
}

func preferModel(model, parsed *string) *string {
	if model != nil && strings.TrimSpace(*model) != "" {
		return stringPtr(strings.TrimSpace(*model))
	}
	return copyString(parsed)
}

func withinSectionOrder(v *float64) *int {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	n := int(math.Floor(*v))
	if n < 1 {
		n = 1
	}
	return &n
}
