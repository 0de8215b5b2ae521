package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/aisle-list/internal/models"
)

func newTestBuilder(t *testing.T) *ListBuilder {
	t.Helper()
	return NewListBuilderForRules(MustDefaultLayoutRules())
}

func canonicalNames(items []models.ShoppingItem) []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.CanonicalName
	}
	return names
}

func itemIDs(items []models.ShoppingItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func TestDedupeItems(t *testing.T) {
	items := []models.ShoppingItem{
		{ID: "a", NormalizedName: "milk", Quantity: strPtr("1"), Confidence: 0.6},
		{ID: "b", NormalizedName: "egg"},
		{ID: "c", NormalizedName: "milk", Quantity: strPtr("2"), Notes: strPtr("2%"), Confidence: 1},
		{ID: "d", NormalizedName: "egg", Quantity: strPtr("12")},
		{ID: "e", NormalizedName: "milk", Quantity: strPtr("2"), Notes: strPtr("cold")},
	}

	got := DedupeItems(items)
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "1 + 2 + 2", *got[0].Quantity)
	assert.Equal(t, "2%; cold", *got[0].Notes)
	assert.InDelta(t, 1.0, got[0].Confidence, 1e-9)

	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "12", *got[1].Quantity)
	assert.Nil(t, got[1].Notes)
}

func TestDedupeSameQuantityNotRepeated(t *testing.T) {
	got := DedupeItems([]models.ShoppingItem{
		{NormalizedName: "bread", Quantity: strPtr("1")},
		{NormalizedName: "bread", Quantity: strPtr("1")},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "1", *got[0].Quantity)
}

func TestBuildOrderedItems(t *testing.T) {
	b := newTestBuilder(t)
	items := b.BuildItems([]string{"milk", "xylophone", "lettuce", "bread", "chicken breast", "apples", "bananas", "broccoli", "eggs"}, models.SourceManual)

	ordered := b.Ordering().BuildOrderedItems(items)
	assert.Equal(t, []string{
		"bananas", "apples", "broccoli", "lettuce",
		"bread",
		"chicken breast",
		"milk", "eggs",
		"xylophone",
	}, canonicalNames(ordered))
}

func TestBuildOrderedItemsIgnoresInputOrder(t *testing.T) {
	b := newTestBuilder(t)
	items := b.BuildItems([]string{"milk", "bananas", "bread", "xylophone", "zebra cakes", "eggs", "yogurt", "apples"}, models.SourceManual)
	want := itemIDs(b.Ordering().BuildOrderedItems(items))

	permutations := [][]int{
		{7, 6, 5, 4, 3, 2, 1, 0},
		{3, 0, 7, 1, 6, 2, 5, 4},
		{1, 3, 5, 7, 0, 2, 4, 6},
	}
	for _, perm := range permutations {
		shuffled := make([]models.ShoppingItem, len(items))
		for i, j := range perm {
			shuffled[i] = items[j]
		}
		assert.Equal(t, want, itemIDs(b.Ordering().BuildOrderedItems(shuffled)))
	}
}

func TestBuildOrderedItemsDoesNotMutateInput(t *testing.T) {
	b := newTestBuilder(t)
	items := b.BuildItems([]string{"milk", "bananas"}, models.SourceManual)
	before := itemIDs(items)

	_ = b.Ordering().BuildOrderedItems(items)
	assert.Equal(t, before, itemIDs(items))
}

func TestBuildOrderedItemsScaffoldFirst(t *testing.T) {
	b := newTestBuilder(t)
	items := []models.ShoppingItem{
		{ID: "1", CanonicalName: "bananas", NormalizedName: "banana", CategoryID: models.CategoryProduce},
		{ID: "2", CanonicalName: "batteries", NormalizedName: "battery", CategoryID: models.CategoryHousehold,
			MajorSectionID: strPtr("household_and_cleaning"), MajorSectionOrder: intPtr(17), MajorSectionItemOrder: intPtr(2)},
		{ID: "3", CanonicalName: "sponges", NormalizedName: "sponge", CategoryID: models.CategoryHousehold,
			MajorSectionID: strPtr("household_and_cleaning"), MajorSectionOrder: intPtr(17), MajorSectionItemOrder: intPtr(1)},
		{ID: "4", CanonicalName: "flowers", NormalizedName: "flower", CategoryID: models.CategoryOther,
			MajorSectionID: strPtr("entry_front_of_store"), MajorSectionOrder: intPtr(0)},
	}

	ordered := b.Ordering().BuildOrderedItems(items)
	assert.Equal(t, []string{"4", "3", "2", "1"}, itemIDs(ordered))
}

func TestBuildSections(t *testing.T) {
	b := newTestBuilder(t)
	items := b.BuildItems([]string{"milk", "bananas", "eggs", "xylophone"}, models.SourceManual)
	for i := range items {
		if items[i].CanonicalName == "milk" {
			items[i].Checked = true
		}
	}

	sections := b.Ordering().BuildSections(items)
	require.Len(t, sections, 3)

	assert.Equal(t, "Produce", sections[0].Title)
	assert.Equal(t, categorySectionRankBase+models.CategoryProduce.Rank(), sections[0].Rank)
	assert.Equal(t, "Dairy & Eggs", sections[1].Title)
	assert.Equal(t, []string{"milk", "eggs"}, canonicalNames(sections[1].Items))
	assert.Equal(t, 1, sections[1].RemainingCount)
	assert.Equal(t, "Other", sections[2].Title)
	assert.Equal(t, string(models.CategoryOther), sections[2].ID)
}

func TestBuildSectionsScaffoldLabels(t *testing.T) {
	b := newTestBuilder(t)
	wall, ok := LookupMajorSection("perimeter_refrigerated_wall")
	require.True(t, ok)

	items := []models.ShoppingItem{
		{ID: "1", CanonicalName: "xylophone", NormalizedName: "xylophone", CategoryID: models.CategoryOther},
		{ID: "2", CanonicalName: "milk", NormalizedName: "milk", CategoryID: models.CategoryDairyEggs,
			MajorSectionID: strPtr(wall.ID), MajorSectionOrder: intPtr(wall.Rank), MajorSectionItemOrder: intPtr(1)},
		{ID: "3", CanonicalName: "eggs", NormalizedName: "eggs", CategoryID: models.CategoryDairyEggs,
			MajorSectionID: strPtr(wall.ID), MajorSectionLabel: strPtr("Dairy wall"), MajorSectionOrder: intPtr(wall.Rank), MajorSectionItemOrder: intPtr(2)},
		{ID: "4", CanonicalName: "gizmo", NormalizedName: "gizmo", CategoryID: models.CategoryOther,
			MajorSectionID: strPtr("not_a_section")},
	}

	sections := b.Ordering().BuildSections(items)
	require.Len(t, sections, 2)

	assert.Equal(t, wall.ID, sections[0].ID)
	assert.Equal(t, "Dairy wall", sections[0].Title)
	assert.Equal(t, wall.Rank, sections[0].Rank)
	assert.Equal(t, []string{"2", "3"}, itemIDs(sections[0].Items))

	assert.Equal(t, "Other", sections[1].Title)
	assert.Len(t, sections[1].Items, 2)
}

func TestBuildSectionsKeepsLastLabel(t *testing.T) {
	b := newTestBuilder(t)
	wall, ok := LookupMajorSection("perimeter_refrigerated_wall")
	require.True(t, ok)

	items := []models.ShoppingItem{
		{ID: "1", CanonicalName: "milk", NormalizedName: "milk", CategoryID: models.CategoryDairyEggs,
			MajorSectionID: strPtr(wall.ID), MajorSectionLabel: strPtr("Dairy wall"), MajorSectionOrder: intPtr(wall.Rank), MajorSectionItemOrder: intPtr(1)},
		{ID: "2", CanonicalName: "eggs", NormalizedName: "eggs", CategoryID: models.CategoryDairyEggs,
			MajorSectionID: strPtr(wall.ID), MajorSectionOrder: intPtr(wall.Rank), MajorSectionItemOrder: intPtr(2)},
	}

	sections := b.Ordering().BuildSections(items)
	require.Len(t, sections, 1)
	assert.Equal(t, "Dairy wall", sections[0].Title)
	assert.Equal(t, []string{"1", "2"}, itemIDs(sections[0].Items))
}

func TestCollateItems(t *testing.T) {
	b := newTestBuilder(t)
	existing := b.BuildItems([]string{"milk", "bananas"}, models.SourceManual)
	for i := range existing {
		existing[i].Checked = true
		if existing[i].CanonicalName == "milk" {
			existing[i].Quantity = strPtr("1")
			existing[i].CategoryID = models.CategoryOther
			existing[i].SubcategoryID = nil
		}
	}
	incoming := b.BuildItems([]string{"2 milk", "bread"}, models.SourceOCR)

	merged := b.Ordering().CollateItems(existing, incoming)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"bananas", "bread", "milk"}, canonicalNames(merged))

	byName := make(map[string]models.ShoppingItem)
	for _, item := range merged {
		byName[item.CanonicalName] = item
	}

	milk := byName["milk"]
	assert.False(t, milk.Checked)
	assert.Equal(t, "1 + 2", *milk.Quantity)
	assert.Equal(t, models.CategoryDairyEggs, milk.CategoryID)
	require.NotNil(t, milk.SubcategoryID)
	assert.Equal(t, "milk", *milk.SubcategoryID)

	assert.True(t, byName["bananas"].Checked)
	assert.False(t, byName["bread"].Checked)
}

func TestCollateKeepsOverriddenCategory(t *testing.T) {
	b := newTestBuilder(t)
	existing := b.BuildItems([]string{"milk"}, models.SourceManual)
	existing[0].CategoryID = models.CategoryPantry
	existing[0].CategoryOverridden = true
	existing[0].Checked = true

	incoming := b.BuildItems([]string{"milk (oat)"}, models.SourceOCR)

	merged := b.Ordering().CollateItems(existing, incoming)
	require.Len(t, merged, 1)
	assert.Equal(t, models.CategoryPantry, merged[0].CategoryID)
	assert.True(t, merged[0].CategoryOverridden)
	assert.False(t, merged[0].Checked)
	assert.Equal(t, "oat", *merged[0].Notes)
}

func TestCollateSkipsNamelessItems(t *testing.T) {
	b := newTestBuilder(t)
	existing := b.BuildItems([]string{"milk"}, models.SourceManual)

	merged := b.Ordering().CollateItems(existing, []models.ShoppingItem{{ID: "blank", NormalizedName: "  "}})
	assert.Equal(t, itemIDs(existing), itemIDs(merged))
}

func TestCollateGivesAppendedItemsUniqueIDs(t *testing.T) {
	b := newTestBuilder(t)
	existing := b.BuildItems([]string{"milk"}, models.SourceManual)
	existing[0].ID = "x"

	incoming := []models.ShoppingItem{
		{ID: "x", CanonicalName: "bread", NormalizedName: "bread", CategoryID: models.CategoryBakery},
		{CanonicalName: "eggs", NormalizedName: "egg", CategoryID: models.CategoryDairyEggs},
	}

	merged := b.Ordering().CollateItems(existing, incoming)
	require.Len(t, merged, 3)

	seen := make(map[string]int)
	for _, item := range merged {
		assert.NotEmpty(t, item.ID)
		seen[item.ID]++
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, 1, seen["x"])
	for _, item := range merged {
		if item.ID == "x" {
			assert.Equal(t, "milk", item.CanonicalName)
		}
	}
}
