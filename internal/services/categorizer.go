package services

import (
	"strings"

	"github.com/foxxcyber/aisle-list/internal/models"
)

// Confidence assigned by each categorization tier
const (
	ExactConfidence    = 1.0
	RuleConfidence     = 0.6
	FuzzyConfidence    = 0.8
	FallbackConfidence = 0.3
)

type categorizeTier struct {
	tier  models.MatchTier
	match func(name models.NormalizedName) (models.CategorizedName, bool)
}

// Categorizer maps item names to a category through a fixed cascade:
// exact dictionary hit, token rule, fuzzy synonym match, then "other".
type Categorizer struct {
	index *CategorizationIndex
	tiers []categorizeTier
}

// NewCategorizer creates a categorizer over a prebuilt index
func NewCategorizer(index *CategorizationIndex) *Categorizer {
	c := &Categorizer{index: index}
	c.tiers = []categorizeTier{
		{tier: models.TierExact, match: c.MatchExact},
		{tier: models.TierRule, match: c.MatchRule},
		{tier: models.TierFuzzy, match: c.MatchFuzzy},
	}
	return c
}

// Normalize exposes the index's name normalizer
func (c *Categorizer) Normalize(name string) models.NormalizedName {
	return c.index.normalizer.Normalize(name)
}

// Categorize runs the cascade and returns the first hit
func (c *Categorizer) Categorize(name string) models.CategorizedName {
	normalized := c.Normalize(name)
	for _, t := range c.tiers {
		if result, ok := t.match(normalized); ok {
			result.MatchTier = t.tier
			return result
		}
	}
	return c.Fallback(normalized)
}

// MatchExact looks the normalized name, then the lowercased display name, up in the vocabulary
func (c *Categorizer) MatchExact(name models.NormalizedName) (models.CategorizedName, bool) {
	entry, ok := c.index.Lookup(name.NormalizedName)
	if !ok {
		entry, ok = c.index.Lookup(strings.ToLower(name.CanonicalName))
	}
	if !ok {
		return models.CategorizedName{}, false
	}
	return fromVocab(entry, name.NormalizedName, ExactConfidence, models.TierExact), true
}

// MatchRule applies the first token rule whose token occurs in the normalized name
func (c *Categorizer) MatchRule(name models.NormalizedName) (models.CategorizedName, bool) {
	for _, rule := range c.index.rules {
		for _, token := range rule.Tokens {
			if !strings.Contains(name.NormalizedName, token) {
				continue
			}
			return models.CategorizedName{
				CanonicalName:  name.CanonicalName,
				NormalizedName: name.NormalizedName,
				CategoryID:     rule.Category,
				SubcategoryID:  copyString(rule.Subcategory),
				Confidence:     RuleConfidence,
				MatchTier:      models.TierRule,
			}, true
		}
	}
	return models.CategorizedName{}, false
}

// MatchFuzzy accepts the closest synonym when it is within FuzzyThreshold
func (c *Categorizer) MatchFuzzy(name models.NormalizedName) (models.CategorizedName, bool) {
	match, ok := c.index.FuzzyFind(name.NormalizedName)
	if !ok || match.Score > FuzzyThreshold {
		return models.CategorizedName{}, false
	}
	return fromVocab(match.Entry, name.NormalizedName, FuzzyConfidence, models.TierFuzzy), true
}

// Fallback files the name under "other"
func (c *Categorizer) Fallback(name models.NormalizedName) models.CategorizedName {
	return models.CategorizedName{
		CanonicalName:  name.CanonicalName,
		NormalizedName: name.NormalizedName,
		CategoryID:     models.CategoryOther,
		Confidence:     FallbackConfidence,
		MatchTier:      models.TierFallback,
	}
}

func fromVocab(entry *VocabEntry, normalized string, confidence float64, tier models.MatchTier) models.CategorizedName {
	return models.CategorizedName{
		CanonicalName:  entry.Canonical,
		NormalizedName: normalized,
		CategoryID:     entry.Category,
		SubcategoryID:  copyString(entry.Subcategory),
		Confidence:     confidence,
		OrderHint:      copyInt(entry.OrderHint),
		MatchTier:      tier,
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func stringPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}
