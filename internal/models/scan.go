package models

// OCRMeta summarizes one recognition pass
type OCRMeta struct {
	MeanConfidence   float64 `json:"mean_confidence"`
	WordCount        int     `json:"word_count"`
	LineCount        int     `json:"line_count"`
	GarbageLineRatio float64 `json:"garbage_line_ratio"`
	TimeMs           int64   `json:"time_ms"`
}

// AttemptSummary describes one (rotation, variant) OCR attempt
type AttemptSummary struct {
	Rotation       int     `json:"rotation"`
	Variant        string  `json:"variant"`
	ItemCount      int     `json:"item_count"`
	KnownItemCount int     `json:"known_item_count"`
	Score          float64 `json:"score"`
	Strong         bool    `json:"strong"`
	Error          string  `json:"error,omitempty"`
}

// ScanResult is the outcome of processing a photographed list
type ScanResult struct {
	RawText          string           `json:"raw_text"`
	Items            []ShoppingItem   `json:"items"`
	Sections         []Section        `json:"sections"`
	OCRMeta          OCRMeta          `json:"ocr_meta"`
	OCRConfidence    float64          `json:"ocr_confidence"`
	ImageHash        string           `json:"image_hash"`
	ThumbnailDataURL string           `json:"thumbnail_data_url"`
	Attempts         []AttemptSummary `json:"attempts"`
	SuggestMagicMode bool             `json:"suggest_magic_mode"`
	ImageKey         *string          `json:"image_key,omitempty"`
	ThumbnailKey     *string          `json:"thumbnail_key,omitempty"`
}

// PipelineStatus names the stage a scan is in
type PipelineStatus string

const (
	StatusPreprocess PipelineStatus = "preprocess"
	StatusOCR        PipelineStatus = "ocr"
	StatusParseLines PipelineStatus = "parse_lines"
	StatusNormalize  PipelineStatus = "normalize"
	StatusCategorize PipelineStatus = "categorize"
	StatusOrder      PipelineStatus = "order"
	StatusReady      PipelineStatus = "review_ready"
)

// PipelineProgress is reported to scan callers as work advances
type PipelineProgress struct {
	Status   PipelineStatus `json:"status"`
	Progress float64        `json:"progress"`
	Label    string         `json:"label"`
}
