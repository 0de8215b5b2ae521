package services

import (
	"github.com/foxxcyber/aisle-list/internal/models"
)

// DedupeItems keeps one item per normalized name, in first-seen order.
// Later duplicates contribute quantity, notes and confidence; every other
// field stays as the first item had it.
func DedupeItems(items []models.ShoppingItem) []models.ShoppingItem {
	byName := make(map[string]int, len(items))
	result := make([]models.ShoppingItem, 0, len(items))

	for _, item := range items {
		i, ok := byName[item.NormalizedName]
		if !ok {
			byName[item.NormalizedName] = len(result)
			result = append(result, item)
			continue
		}

		existing := &result[i]
		existing.Quantity = mergeQuantity(existing.Quantity, item.Quantity)
		existing.Notes = mergeNotes(existing.Notes, item.Notes)
		if item.Confidence > existing.Confidence {
			existing.Confidence = item.Confidence
		}
	}

	return result
}

func mergeQuantity(left, right *string) *string {
	if isBlank(left) {
		return copyString(right)
	}
	if isBlank(right) || *left == *right {
		return copyString(left)
	}
	return stringPtr(*left + " + " + *right)
}

func mergeNotes(left, right *string) *string {
	if isBlank(left) {
		if isBlank(right) {
			return nil
		}
		return copyString(right)
	}
	if isBlank(right) || *left == *right {
		return copyString(left)
	}
	return stringPtr(*left + "; " + *right)
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}
