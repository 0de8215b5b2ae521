package models

import (
	"time"
)

// Section groups ordered items under one display heading
type Section struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Rank           int            `json:"rank"`
	Items          []ShoppingItem `json:"items"`
	RemainingCount int            `json:"remaining_count"`
}

// ShoppingList is a persisted checklist
type ShoppingList struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	ImageHash     *string   `json:"image_hash,omitempty"`
	ImageKey      *string   `json:"image_key,omitempty"`
	ThumbnailKey  *string   `json:"thumbnail_key,omitempty"`
	RawText       string    `json:"raw_text"`
	OCRConfidence float64   `json:"ocr_confidence"`
	OCRMeta       *OCRMeta  `json:"ocr_meta,omitempty"`
	UsedMagicMode bool      `json:"used_magic_mode"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ShoppingListWithItems includes the list, its ordered items and sections
type ShoppingListWithItems struct {
	ShoppingList
	Items          []ShoppingItem `json:"items"`
	Sections       []Section      `json:"sections"`
	ItemCount      int            `json:"item_count"`
	RemainingCount int            `json:"remaining_count"`
}

// ShoppingListSummary is a compact representation for list views
type ShoppingListSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	ItemCount      int       `json:"item_count"`
	RemainingCount int       `json:"remaining_count"`
	UsedMagicMode  bool      `json:"used_magic_mode"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ListListParams contains parameters for listing saved lists
type ListListParams struct {
	Limit  int
	Offset int
}

// CreateListRequest is the request body for saving a checklist
type CreateListRequest struct {
	Title         string         `json:"title"`
	Items         []ShoppingItem `json:"items"`
	ImageHash     *string        `json:"image_hash,omitempty"`
	ImageKey      *string        `json:"image_key,omitempty"`
	ThumbnailKey  *string        `json:"thumbnail_key,omitempty"`
	RawText       string         `json:"raw_text"`
	OCRConfidence float64        `json:"ocr_confidence"`
	OCRMeta       *OCRMeta       `json:"ocr_meta,omitempty"`
	UsedMagicMode bool           `json:"used_magic_mode"`
}

// AddItemsRequest merges a new batch into an existing list
type AddItemsRequest struct {
	Items []ShoppingItem `json:"items"`
	Text  string         `json:"text,omitempty"`
}

// UpdateListItemRequest edits one item. Setting CategoryID marks the item as overridden.
type UpdateListItemRequest struct {
	Checked       *bool       `json:"checked,omitempty"`
	CanonicalName *string     `json:"canonical_name,omitempty"`
	Quantity      *string     `json:"quantity,omitempty"`
	Notes         *string     `json:"notes,omitempty"`
	CategoryID    *CategoryID `json:"category_id,omitempty"`
}
