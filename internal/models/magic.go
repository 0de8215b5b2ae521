package models

// MagicResponse is the structured output of the vision-model parser
type MagicResponse struct {
	ListTitle *string     `json:"list_title"`
	Items     []MagicItem `json:"items"`
	Warnings  []string    `json:"warnings"`
}

// MagicItem is one item candidate returned by the vision model
type MagicItem struct {
	RawText            string   `json:"raw_text"`
	CanonicalName      string   `json:"canonical_name"`
	Quantity           *string  `json:"quantity"`
	Notes              *string  `json:"notes"`
	CategoryHint       *string  `json:"category_hint"`
	MajorSection       *string  `json:"major_section"`
	Subsection         *string  `json:"subsection"`
	WithinSectionOrder *float64 `json:"within_section_order"`
}

// MagicScanResult is returned by the magic-mode endpoint
type MagicScanResult struct {
	ListTitle *string        `json:"list_title"`
	Items     []ShoppingItem `json:"items"`
	Sections  []Section      `json:"sections"`
	Warnings  []string       `json:"warnings"`
	UsedShare bool           `json:"used_shared_key"`

	ImageHash        string  `json:"image_hash"`
	ThumbnailDataURL string  `json:"thumbnail_data_url"`
	ImageKey         *string `json:"image_key,omitempty"`
	ThumbnailKey     *string `json:"thumbnail_key,omitempty"`
}
