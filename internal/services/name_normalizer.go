package services

import (
	"regexp"
	"strings"

	"github.com/foxxcyber/aisle-list/internal/models"
)

// Common OCR misreads of list words
var ocrFixes = map[string]string{
	"miik":     "milk",
	"mi1k":     "milk",
	"1ime":     "lime",
	"bannana":  "banana",
	"banannas": "bananas",
	"app1e":    "apple",
	"y0gurt":   "yogurt",
}

// Plurals that are the natural list spelling
var singularExceptions = map[string]bool{
	"eggs":   true,
	"chips":  true,
	"greens": true,
	"beans":  true,
}

var (
	trailingPunctPattern = regexp.MustCompile(`[.,;:!?]+$`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
)

// NameNormalizer derives the display and identity spellings of an item name
type NameNormalizer struct{}

// NewNameNormalizer creates a new name normalizer
func NewNameNormalizer() *NameNormalizer {
	return &NameNormalizer{}
}

// Normalize returns the trimmed display name and the lowercase, typo-fixed,
// singular identity key.
func (n *NameNormalizer) Normalize(name string) models.NormalizedName {
	canonical := strings.TrimSpace(name)
	canonical = trailingPunctPattern.ReplaceAllString(canonical, "")
	canonical = strings.TrimSpace(whitespacePattern.ReplaceAllString(canonical, " "))

	tokens := strings.Split(strings.ToLower(canonical), " ")
	for i, token := range tokens {
		if fixed, ok := ocrFixes[token]; ok {
			tokens[i] = fixed
		}
	}

	return models.NormalizedName{
		CanonicalName:  canonical,
		NormalizedName: singularize(strings.Join(tokens, " ")),
	}
}

func singularize(value string) string {
	if singularExceptions[value] {
		return value
	}
	if len(value) > 3 && strings.HasSuffix(value, "ies") {
		return strings.TrimSuffix(value, "ies") + "y"
	}
	if len(value) > 3 && strings.HasSuffix(value, "s") && !strings.HasSuffix(value, "ss") {
		return strings.TrimSuffix(value, "s")
	}
	return value
}
