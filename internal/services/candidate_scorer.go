package services

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/foxxcyber/aisle-list/internal/models"
)

var alphaWordPattern = regexp.MustCompile(`(?i)[a-z]{3,}`)

// CandidateScore is the quality summary of one OCR attempt
type CandidateScore struct {
	ItemCount         int     `json:"item_count"`
	KnownItemCount    int     `json:"known_item_count"`
	AvgItemConfidence float64 `json:"avg_item_confidence"`
	AlphaWordCount    int     `json:"alpha_word_count"`
	GarbageLineRatio  float64 `json:"garbage_line_ratio"`
	Score             float64 `json:"score"`
}

// Strong reports whether the attempt is good enough to stop trying others
func (s CandidateScore) Strong() bool {
	if s.KnownItemCount >= 2 {
		return true
	}
	if s.KnownItemCount >= 1 && s.AvgItemConfidence >= 0.55 {
		return true
	}
	return s.Score >= 12
}

// CandidateScorer rates an attempt from its raw text, OCR lines and extracted items
type CandidateScorer func(rawText string, lines []string, items []models.ShoppingItem) CandidateScore

// ScoreCandidate rates an attempt by how many recognizable items it produced
func ScoreCandidate(rawText string, lines []string, items []models.ShoppingItem) CandidateScore {
	s := CandidateScore{
		ItemCount:        len(items),
		AlphaWordCount:   len(alphaWordPattern.FindAllStringIndex(rawText, -1)),
		GarbageLineRatio: GarbageLineRatio(lines),
	}

	var total float64
	for _, item := range items {
		total += item.Confidence
		if item.CategoryID != models.CategoryOther && item.Confidence >= 0.6 {
			s.KnownItemCount++
		}
	}
	if len(items) > 0 {
		s.AvgItemConfidence = total / float64(len(items))
	}

	s.Score = float64(s.KnownItemCount)*7 +
		s.AvgItemConfidence*3 +
		math.Min(float64(s.AlphaWordCount), 24)*0.25 +
		math.Min(float64(s.ItemCount), 20)*0.15 -
		s.GarbageLineRatio*4

	return s
}

// GarbageLineRatio is the share of non-empty lines that are mostly symbols
func GarbageLineRatio(lines []string) float64 {
	var nonEmpty, garbage int
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		nonEmpty++
		if isGarbageLine(line) {
			garbage++
		}
	}
	if nonEmpty == 0 {
		return 0
	}
	return float64(garbage) / float64(nonEmpty)
}

func isGarbageLine(line string) bool {
	var total, noise int
	for _, r := range strings.ToLower(line) {
		total++
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || unicode.IsSpace(r) {
			continue
		}
		noise++
	}
	return total > 0 && float64(noise)/float64(total) > 0.5
}

// ComputeOCRConfidence folds recognition statistics into a 0..1 confidence
func ComputeOCRConfidence(meta models.OCRMeta) float64 {
	var confidence float64
	if meta.WordCount >= 8 {
		confidence += 0.3
	}
	if meta.MeanConfidence >= 0.7 {
		confidence += 0.2
	}
	if meta.LineCount >= 5 {
		confidence += 0.2
	}
	if meta.GarbageLineRatio > 0.4 {
		confidence -= 0.3
	}
	return math.Max(0, math.Min(1, confidence))
}
