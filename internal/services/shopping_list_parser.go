package services

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/foxxcyber/aisle-list/internal/models"
)

// ShoppingListParser turns raw OCR or typed text into candidate item lines
type ShoppingListParser struct {
	lineBreakPattern    *regexp.Regexp
	noisePattern        *regexp.Regexp
	markerPattern       *regexp.Regexp
	multiItemPattern    *regexp.Regexp
	parenNotesPattern   *regexp.Regexp
	leadingQtyPattern   *regexp.Regexp
	trailingUnitPattern *regexp.Regexp
}

// NewShoppingListParser creates a new parser
func NewShoppingListParser() *ShoppingListParser {
	return &ShoppingListParser{
		lineBreakPattern: regexp.MustCompile(`\r?\n`),
		noisePattern:     regexp.MustCompile(`^[\s\p{P}]+$`),
		// Bullets, checkbox glyphs, "1." / "1)" / "(1)" numbering and stray OCR dots.
		// "1." needs a following space so "2.5 lb" keeps its quantity.
		markerPattern:       regexp.MustCompile(`^\s*(?:[-*•]+|\[[ xX]?\]|☐|□|\d+\)|\d+\.(?:\s|$)|\(\d+\)|[.#?]+)\s*`),
		multiItemPattern:    regexp.MustCompile(`[;,]`),
		parenNotesPattern:   regexp.MustCompile(`\(([^)]+)\)\s*$`),
		leadingQtyPattern:   regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?|\d+/\d+)\s*(?:x|×)?\s+`),
		trailingUnitPattern: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?\s?(?:lb|lbs|oz|g|kg|ml|l|pack|pkg|ct))\b`),
	}
}

// SplitLines returns one candidate string per item, in input order.
// Lines holding several comma or semicolon separated items are exploded in place.
func (p *ShoppingListParser) SplitLines(rawText string) []string {
	text := norm.NFC.String(rawText)

	var result []string
	for _, line := range p.lineBreakPattern.Split(text, -1) {
		line = strings.TrimSpace(line)
		if line == "" || p.noisePattern.MatchString(line) {
			continue
		}

		line = strings.TrimSpace(p.markerPattern.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}

		if tokens := p.splitMultiItem(line); len(tokens) > 1 {
			result = append(result, tokens...)
			continue
		}
		result = append(result, line)
	}

	return result
}

func (p *ShoppingListParser) splitMultiItem(line string) []string {
	if !strings.ContainsAny(line, ",;") {
		return nil
	}

	var tokens []string
	for _, part := range p.multiItemPattern.Split(line, -1) {
		if part = strings.TrimSpace(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

// ParseQuantityAndNotes splits a line into name, quantity and notes.
// Notes come from a trailing parenthetical, then a leading count is taken,
// then the first number+unit token. An empty Name means the line held no item.
func (p *ShoppingListParser) ParseQuantityAndNotes(line string) models.ParsedLine {
	working := strings.TrimSpace(line)
	var quantity, notes *string

	if match := p.parenNotesPattern.FindStringSubmatchIndex(working); match != nil {
		n := strings.TrimSpace(working[match[2]:match[3]])
		notes = &n
		working = strings.TrimSpace(working[:match[0]] + working[match[1]:])
	}

	if match := p.leadingQtyPattern.FindStringSubmatch(working); match != nil {
		q := match[1]
		quantity = &q
		working = strings.TrimSpace(working[len(match[0]):])
	}

	if match := p.trailingUnitPattern.FindStringSubmatchIndex(working); match != nil {
		unit := working[match[2]:match[3]]
		if quantity != nil {
			unit = *quantity + " " + unit
		}
		quantity = &unit
		working = strings.TrimSpace(working[:match[0]] + working[match[1]:])
	}

	return models.ParsedLine{
		Name:     working,
		Quantity: quantity,
		Notes:    notes,
	}
}
