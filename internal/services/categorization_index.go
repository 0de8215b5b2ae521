package services

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// FuzzyThreshold is the highest normalized edit distance accepted as a match
const FuzzyThreshold = 0.34

type fuzzyCandidate struct {
	key   string
	entry *VocabEntry
}

// FuzzyMatch is the best approximate vocabulary hit for a term
type FuzzyMatch struct {
	Synonym string
	Entry   *VocabEntry
	Score   float64
}

// CategorizationIndex is the lookup structure built once from the vocabulary.
// It is read-only after construction and safe for concurrent use.
type CategorizationIndex struct {
	exact      map[string]*VocabEntry
	candidates []fuzzyCandidate
	rules      []TokenRule
	normalizer *NameNormalizer
}

// NewCategorizationIndex builds the exact map and fuzzy candidate list
func NewCategorizationIndex(rules *LayoutRules) *CategorizationIndex {
	idx := &CategorizationIndex{
		exact:      make(map[string]*VocabEntry),
		rules:      rules.TokenRules,
		normalizer: NewNameNormalizer(),
	}

	for i := range rules.Vocabulary {
		entry := &rules.Vocabulary[i]
		idx.exact[strings.ToLower(entry.Canonical)] = entry
		for _, synonym := range entry.Synonyms {
			key := strings.ToLower(synonym)
			idx.exact[key] = entry
			idx.candidates = append(idx.candidates, fuzzyCandidate{key: key, entry: entry})
		}
	}

	return idx
}

// Lookup returns the vocabulary entry whose canonical name or synonym equals key
func (idx *CategorizationIndex) Lookup(key string) (*VocabEntry, bool) {
	entry, ok := idx.exact[key]
	return entry, ok
}

// FuzzyFind returns the synonym with the lowest normalized edit distance to term.
// Ties keep the earliest synonym in vocabulary order.
func (idx *CategorizationIndex) FuzzyFind(term string) (FuzzyMatch, bool) {
	term = strings.ToLower(term)

	var best FuzzyMatch
	found := false
	for _, c := range idx.candidates {
		score := normalizedDistance(term, c.key)
		if !found || score < best.Score {
			best = FuzzyMatch{Synonym: c.key, Entry: c.entry, Score: score}
			found = true
		}
	}
	return best, found
}

func normalizedDistance(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.Distance(a, b, nil)) / float64(longest)
}
