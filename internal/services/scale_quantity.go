package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numericTokenPattern = regexp.MustCompile(`\d+\s+\d+/\d+|\d+/\d+|\d*\.?\d+`)

// ScaleQuantity multiplies every number in a free-text quantity.
// Mixed numbers ("1 1/2") and fractions are understood. Quantities with no
// number, and non-positive multipliers, come back unchanged.
func ScaleQuantity(quantity *string, multiplier float64) *string {
	if quantity == nil || strings.TrimSpace(*quantity) == "" {
		return quantity
	}
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier <= 0 {
		return quantity
	}

	replaced := false
	scaled := numericTokenPattern.ReplaceAllStringFunc(strings.TrimSpace(*quantity), func(token string) string {
		value, ok := parseNumericToken(token)
		if !ok {
			return token
		}
		replaced = true
		return formatScaledNumber(value * multiplier)
	})

	if !replaced {
		return quantity
	}
	return &scaled
}

func parseNumericToken(token string) (float64, bool) {
	if strings.Contains(token, "/") {
		fields := strings.Fields(token)
		if len(fields) == 2 {
			whole, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return 0, false
			}
			frac, ok := parseFraction(fields[1])
			if !ok {
				return 0, false
			}
			return whole + frac, true
		}
		return parseFraction(token)
	}

	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseFraction(s string) (float64, bool) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

func formatScaledNumber(v float64) string {
	rounded := math.Round(v*100) / 100
	if nearest := math.Round(rounded); math.Abs(rounded-nearest) < 1e-6 {
		return strconv.FormatFloat(nearest, 'f', 0, 64)
	}
	s := strconv.FormatFloat(rounded, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
