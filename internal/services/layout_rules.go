package services

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/foxxcyber/aisle-list/internal/models"
)

//go:embed data/layout_rules.yaml
var defaultLayoutRules []byte

// VocabEntry is one dictionary row of the categorization vocabulary
type VocabEntry struct {
	Canonical   string            `yaml:"canonical" json:"canonical"`
	Synonyms    []string          `yaml:"synonyms" json:"synonyms"`
	Category    models.CategoryID `yaml:"category" json:"category"`
	Subcategory *string           `yaml:"subcategory" json:"subcategory"`
	OrderHint   *int              `yaml:"order_hint" json:"order_hint"`
}

// TokenRule assigns a category when a normalized name contains any token
type TokenRule struct {
	Tokens      []string          `yaml:"tokens"`
	Category    models.CategoryID `yaml:"category"`
	Subcategory *string           `yaml:"subcategory"`
}

// LayoutRules holds the hand-curated tables that drive categorization and ordering
type LayoutRules struct {
	Vocabulary       []VocabEntry   `yaml:"vocabulary"`
	TokenRules       []TokenRule    `yaml:"token_rules"`
	SubcategoryRanks map[string]int `yaml:"subcategory_ranks"`
	ErrandPatterns   []string       `yaml:"errand_patterns"`

	errands []*regexp.Regexp
}

// LoadLayoutRules reads rules from path, or the built-in table when path is empty
func LoadLayoutRules(path string) (*LayoutRules, error) {
	data := defaultLayoutRules
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read layout rules: %w", err)
		}
		data = b
	}
	return ParseLayoutRules(data)
}

// ParseLayoutRules decodes and validates a YAML rules document
func ParseLayoutRules(data []byte) (*LayoutRules, error) {
	var rules LayoutRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse layout rules: %w", err)
	}

	seen := make(map[string]string)
	for i, entry := range rules.Vocabulary {
		if strings.TrimSpace(entry.Canonical) == "" {
			return nil, fmt.Errorf("vocabulary entry %d: canonical name is required", i)
		}
		if !entry.Category.Valid() {
			return nil, fmt.Errorf("vocabulary entry %q: unknown category %q", entry.Canonical, entry.Category)
		}
		for _, key := range append([]string{entry.Canonical}, entry.Synonyms...) {
			key = strings.ToLower(key)
			if owner, ok := seen[key]; ok && owner != entry.Canonical {
				return nil, fmt.Errorf("vocabulary key %q is claimed by %q and %q", key, owner, entry.Canonical)
			}
			seen[key] = entry.Canonical
		}
	}

	for i, rule := range rules.TokenRules {
		if !rule.Category.Valid() {
			return nil, fmt.Errorf("token rule %d: unknown category %q", i, rule.Category)
		}
	}

	for _, pattern := range rules.ErrandPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid errand pattern %q: %w", pattern, err)
		}
		rules.errands = append(rules.errands, re)
	}

	if rules.SubcategoryRanks == nil {
		rules.SubcategoryRanks = map[string]int{}
	}

	return &rules, nil
}

// MustDefaultLayoutRules returns the built-in rules and panics if they are broken
func MustDefaultLayoutRules() *LayoutRules {
	rules, err := ParseLayoutRules(defaultLayoutRules)
	if err != nil {
		panic(err)
	}
	return rules
}

// IsErrand reports whether text names a task rather than something to buy
func (r *LayoutRules) IsErrand(text string) bool {
	for _, re := range r.errands {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// SubcategoryRank returns the rank of a subcategory and whether it is known
func (r *LayoutRules) SubcategoryRank(subcategory *string) (int, bool) {
	if subcategory == nil {
		return 0, false
	}
	rank, ok := r.SubcategoryRanks[*subcategory]
	return rank, ok
}
