//go:build !windows

package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/foxxcyber/aisle-list/internal/services"
)

// Engine recognizes text with Tesseract. One recognition runs at a time.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewEngine creates a new Tesseract engine
func NewEngine(language string) (*Engine, error) {
	if language == "" {
		language = "eng"
	}

	client := gosseract.NewClient()

	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Handwritten lists read best as one uniform block
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &Engine{client: client}, nil
}

type recognition struct {
	result *services.OCRResult
	err    error
}

// Recognize reads text, lines and word confidence from an encoded image.
// If ctx ends first, Recognize returns its error without waiting for Tesseract.
func (e *Engine) Recognize(ctx context.Context, image []byte) (*services.OCRResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan recognition, 1)
	go func() {
		result, err := e.recognize(image)
		done <- recognition{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.result, r.err
	}
}

func (e *Engine) recognize(image []byte) (*services.OCRResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}

	lineBoxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}
	var lines []string
	for _, box := range lineBoxes {
		if line := strings.TrimSpace(box.Word); line != "" {
			lines = append(lines, line)
		}
	}

	wordBoxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to read words: %w", err)
	}
	var total float64
	for _, box := range wordBoxes {
		total += box.Confidence
	}
	var mean float64
	if len(wordBoxes) > 0 {
		mean = total / float64(len(wordBoxes)) / 100
	}

	return &services.OCRResult{
		Text:           text,
		Lines:          lines,
		MeanConfidence: mean,
		WordCount:      len(wordBoxes),
		LineCount:      len(lines),
	}, nil
}

// Close releases OCR resources
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
