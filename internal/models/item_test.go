package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryID(t *testing.T) {
	tests := []struct {
		id        CategoryID
		wantValid bool
		wantRank  int
		wantLabel string
	}{
		{CategoryProduce, true, 0, "Produce"},
		{CategoryDairyEggs, true, 4, "Dairy & Eggs"},
		{CategoryPersonalCare, true, 10, "Personal Care"},
		{CategoryOther, true, 12, "Other"},
		{CategoryID("garden"), false, 12, "Other"},
		{CategoryID(""), false, 12, "Other"},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			assert.Equal(t, tt.wantValid, tt.id.Valid())
			assert.Equal(t, tt.wantRank, tt.id.Rank())
			assert.Equal(t, tt.wantLabel, tt.id.Label())
		})
	}
}

func TestCategoryOrderCoversLabels(t *testing.T) {
	assert.Len(t, CategoryOrder, len(categoryLabels))
	for i, id := range CategoryOrder {
		assert.Equal(t, i, id.Rank(), id)
	}
}

func TestClearMajorSection(t *testing.T) {
	id, label, sub := "deli_counter", "Deli", "Cheese"
	rank, within := 3, 1
	item := ShoppingItem{
		MajorSectionID:        &id,
		MajorSectionLabel:     &label,
		MajorSubsection:       &sub,
		MajorSectionOrder:     &rank,
		MajorSectionItemOrder: &within,
		CategoryID:            CategoryDeli,
	}

	item.ClearMajorSection()
	assert.Nil(t, item.MajorSectionID)
	assert.Nil(t, item.MajorSectionLabel)
	assert.Nil(t, item.MajorSubsection)
	assert.Nil(t, item.MajorSectionOrder)
	assert.Nil(t, item.MajorSectionItemOrder)
	assert.Equal(t, CategoryDeli, item.CategoryID)
}
