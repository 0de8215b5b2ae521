package services

import (
	"math"
	"sort"
	"strings"

	"github.com/foxxcyber/aisle-list/internal/models"
)

// Fallback sections rank after every scaffold section
const categorySectionRankBase = 1000

// OrderingEngine produces the store-walk order and display sections
type OrderingEngine struct {
	rules *LayoutRules
}

// NewOrderingEngine creates a new ordering engine
func NewOrderingEngine(rules *LayoutRules) *OrderingEngine {
	return &OrderingEngine{rules: rules}
}

// BuildOrderedItems returns a sorted copy of items. The order is total, so any
// permutation of the same input yields the same sequence.
func (e *OrderingEngine) BuildOrderedItems(items []models.ShoppingItem) []models.ShoppingItem {
	ordered := make([]models.ShoppingItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return e.compare(&ordered[i], &ordered[j]) < 0
	})
	return ordered
}

func (e *OrderingEngine) compare(left, right *models.ShoppingItem) int {
	if left.MajorSectionOrder != nil || right.MajorSectionOrder != nil {
		if left.MajorSectionOrder == nil {
			return 1
		}
		if right.MajorSectionOrder == nil {
			return -1
		}
		if c := compareInt(*left.MajorSectionOrder, *right.MajorSectionOrder); c != 0 {
			return c
		}
		if c := compareOptionalInt(left.MajorSectionItemOrder, right.MajorSectionItemOrder); c != 0 {
			return c
		}
	}

	if c := compareInt(left.CategoryID.Rank(), right.CategoryID.Rank()); c != 0 {
		return c
	}
	if c := compareOptionalInt(left.OrderHint, right.OrderHint); c != 0 {
		return c
	}
	if c := compareInt(e.subcategoryRank(left.SubcategoryID), e.subcategoryRank(right.SubcategoryID)); c != 0 {
		return c
	}
	if c := strings.Compare(strings.ToLower(left.CanonicalName), strings.ToLower(right.CanonicalName)); c != 0 {
		return c
	}
	if c := strings.Compare(left.CanonicalName, right.CanonicalName); c != 0 {
		return c
	}
	if c := strings.Compare(left.NormalizedName, right.NormalizedName); c != 0 {
		return c
	}
	return strings.Compare(left.ID, right.ID)
}

func (e *OrderingEngine) subcategoryRank(subcategory *string) int {
	if rank, ok := e.rules.SubcategoryRank(subcategory); ok {
		return rank
	}
	return math.MaxInt
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareOptionalInt(a, b *int) int {
	av, bv := math.MaxInt, math.MaxInt
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return compareInt(av, bv)
}

type sectionBucket struct {
	section models.Section
}

// BuildSections groups the ordered items by scaffold section, or by category
// when an item has no known section.
func (e *OrderingEngine) BuildSections(items []models.ShoppingItem) []models.Section {
	var buckets []*sectionBucket
	byKey := make(map[string]*sectionBucket)

	for _, item := range e.BuildOrderedItems(items) {
		key, title, rank, scaffold := sectionPlacement(&item)

		bucket, ok := byKey[key]
		if !ok {
			bucket = &sectionBucket{section: models.Section{ID: key, Title: title, Rank: rank}}
			byKey[key] = bucket
			buckets = append(buckets, bucket)
		} else if scaffold {
			if item.MajorSectionLabel != nil && *item.MajorSectionLabel != "" {
				bucket.section.Title = title
			}
			bucket.section.Rank = rank
		}

		bucket.section.Items = append(bucket.section.Items, item)
		if !item.Checked {
			bucket.section.RemainingCount++
		}
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		a, b := buckets[i].section, buckets[j].section
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.Title < b.Title
	})

	sections := make([]models.Section, len(buckets))
	for i, b := range buckets {
		sections[i] = b.section
	}
	return sections
}

func sectionPlacement(item *models.ShoppingItem) (key, title string, rank int, scaffold bool) {
	if item.MajorSectionID != nil {
		if section, ok := LookupMajorSection(*item.MajorSectionID); ok {
			title = section.Label
			if item.MajorSectionLabel != nil && *item.MajorSectionLabel != "" {
				title = *item.MajorSectionLabel
			}
			rank = section.Rank
			if item.MajorSectionOrder != nil {
				rank = *item.MajorSectionOrder
			}
			return section.ID, title, rank, true
		}
	}

	category := item.CategoryID
	if !category.Valid() {
		category = models.CategoryOther
	}
	return string(category), category.Label(), categorySectionRankBase + category.Rank(), false
}
