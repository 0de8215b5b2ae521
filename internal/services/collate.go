package services

import (
	"strings"

	"github.com/google/uuid"

	"github.com/foxxcyber/aisle-list/internal/models"
)

// CollateItems merges an incoming batch into an existing list by normalized
// name and returns the merged list in store order.
//
// A matched item is unchecked again and takes the combined quantity and notes
// and the higher confidence. Unless the user overrode its category, it also
// takes the incoming classification as a whole: category, subcategory, order
// hint and every major-section field. An appended item whose ID is empty or
// already taken gets a fresh one.
func (e *OrderingEngine) CollateItems(existing, incoming []models.ShoppingItem) []models.ShoppingItem {
	merged := make([]models.ShoppingItem, len(existing))
	copy(merged, existing)

	byKey := make(map[string]int, len(merged))
	ids := make(map[string]struct{}, len(merged))
	for i, item := range merged {
		ids[item.ID] = struct{}{}
		if key := collateKey(item); key != "" {
			if _, ok := byKey[key]; !ok {
				byKey[key] = i
			}
		}
	}

	for _, item := range incoming {
		key := collateKey(item)
		if key == "" {
			continue
		}

		i, ok := byKey[key]
		if !ok {
			item.Checked = false
			if _, taken := ids[item.ID]; taken || item.ID == "" {
				item.ID = uuid.NewString()
			}
			ids[item.ID] = struct{}{}
			byKey[key] = len(merged)
			merged = append(merged, item)
			continue
		}

		current := &merged[i]
		current.Quantity = mergeQuantity(current.Quantity, item.Quantity)
		current.Notes = mergeNotes(current.Notes, item.Notes)
		current.Checked = false
		if item.Confidence > current.Confidence {
			current.Confidence = item.Confidence
		}
		if !current.CategoryOverridden {
			replaceClassification(current, &item)
		}
	}

	return e.BuildOrderedItems(merged)
}

func replaceClassification(dst, src *models.ShoppingItem) {
	dst.CategoryID = src.CategoryID
	dst.SubcategoryID = copyString(src.SubcategoryID)
	dst.OrderHint = copyInt(src.OrderHint)
	dst.MajorSectionID = copyString(src.MajorSectionID)
	dst.MajorSectionLabel = copyString(src.MajorSectionLabel)
	dst.MajorSubsection = copyString(src.MajorSubsection)
	dst.MajorSectionOrder = copyInt(src.MajorSectionOrder)
	dst.MajorSectionItemOrder = copyInt(src.MajorSectionItemOrder)
}

func collateKey(item models.ShoppingItem) string {
	return strings.ToLower(strings.TrimSpace(item.NormalizedName))
}
