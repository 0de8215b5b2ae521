package models

// CategoryID is one of the coarse aisle buckets
type CategoryID string

const (
	CategoryProduce      CategoryID = "produce"
	CategoryBakery       CategoryID = "bakery"
	CategoryDeli         CategoryID = "deli"
	CategoryMeatSeafood  CategoryID = "meat_seafood"
	CategoryDairyEggs    CategoryID = "dairy_eggs"
	CategoryFrozen       CategoryID = "frozen"
	CategoryPantry       CategoryID = "pantry"
	CategorySnacks       CategoryID = "snacks"
	CategoryBeverages    CategoryID = "beverages"
	CategoryHousehold    CategoryID = "household"
	CategoryPersonalCare CategoryID = "personal_care"
	CategoryPet          CategoryID = "pet"
	CategoryOther        CategoryID = "other"
)

// CategoryOrder is the walk order of the coarse categories
var CategoryOrder = []CategoryID{
	CategoryProduce,
	CategoryBakery,
	CategoryDeli,
	CategoryMeatSeafood,
	CategoryDairyEggs,
	CategoryFrozen,
	CategoryPantry,
	CategorySnacks,
	CategoryBeverages,
	CategoryHousehold,
	CategoryPersonalCare,
	CategoryPet,
	CategoryOther,
}

var categoryLabels = map[CategoryID]string{
	CategoryProduce:      "Produce",
	CategoryBakery:       "Bakery",
	CategoryDeli:         "Deli",
	CategoryMeatSeafood:  "Meat & Seafood",
	CategoryDairyEggs:    "Dairy & Eggs",
	CategoryFrozen:       "Frozen",
	CategoryPantry:       "Pantry",
	CategorySnacks:       "Snacks",
	CategoryBeverages:    "Beverages",
	CategoryHousehold:    "Household",
	CategoryPersonalCare: "Personal Care",
	CategoryPet:          "Pet",
	CategoryOther:        "Other",
}

var categoryRanks = func() map[CategoryID]int {
	ranks := make(map[CategoryID]int, len(CategoryOrder))
	for i, id := range CategoryOrder {
		ranks[id] = i
	}
	return ranks
}()

// Valid reports whether c is one of the known categories
func (c CategoryID) Valid() bool {
	_, ok := categoryRanks[c]
	return ok
}

// Rank returns the walk-order position. Unknown categories rank with "other".
func (c CategoryID) Rank() int {
	if rank, ok := categoryRanks[c]; ok {
		return rank
	}
	return categoryRanks[CategoryOther]
}

// Label returns the display title of the category
func (c CategoryID) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return categoryLabels[CategoryOther]
}

// ItemSource records how an item entered the list
type ItemSource string

const (
	SourceOCR    ItemSource = "ocr"
	SourceMagic  ItemSource = "magic"
	SourceManual ItemSource = "manual"
)

// ShoppingItem is a single checklist entry
type ShoppingItem struct {
	ID                    string     `json:"id"`
	RawText               string     `json:"raw_text"`
	CanonicalName         string     `json:"canonical_name"`
	NormalizedName        string     `json:"normalized_name"`
	Quantity              *string    `json:"quantity"`
	Notes                 *string    `json:"notes"`
	CategoryID            CategoryID `json:"category_id"`
	SubcategoryID         *string    `json:"subcategory_id"`
	OrderHint             *int       `json:"order_hint"`
	Checked               bool       `json:"checked"`
	Confidence            float64    `json:"confidence"`
	Source                ItemSource `json:"source"`
	CategoryOverridden    bool       `json:"category_overridden"`
	MajorSectionID        *string    `json:"major_section_id"`
	MajorSectionLabel     *string    `json:"major_section_label"`
	MajorSubsection       *string    `json:"major_subsection"`
	MajorSectionOrder     *int       `json:"major_section_order"`
	MajorSectionItemOrder *int       `json:"major_section_item_order"`
}

// ClearMajorSection drops all store-scaffold placement fields
func (i *ShoppingItem) ClearMajorSection() {
	i.MajorSectionID = nil
	i.MajorSectionLabel = nil
	i.MajorSubsection = nil
	i.MajorSectionOrder = nil
	i.MajorSectionItemOrder = nil
}

// ParsedLine is one candidate line split into name, quantity and notes
type ParsedLine struct {
	Name     string  `json:"name"`
	Quantity *string `json:"quantity"`
	Notes    *string `json:"notes"`
}

// NormalizedName pairs the display spelling with the identity key
type NormalizedName struct {
	CanonicalName  string `json:"canonical_name"`
	NormalizedName string `json:"normalized_name"`
}

// MatchTier names the categorization tier that produced a result
type MatchTier string

const (
	TierExact    MatchTier = "exact"
	TierRule     MatchTier = "rule"
	TierFuzzy    MatchTier = "fuzzy"
	TierFallback MatchTier = "fallback"
)

// CategorizedName is the output of the categorization cascade
type CategorizedName struct {
	CanonicalName  string     `json:"canonical_name"`
	NormalizedName string     `json:"normalized_name"`
	CategoryID     CategoryID `json:"category_id"`
	SubcategoryID  *string    `json:"subcategory_id"`
	Confidence     float64    `json:"confidence"`
	OrderHint      *int       `json:"order_hint"`
	MatchTier      MatchTier  `json:"match_tier"`
}
