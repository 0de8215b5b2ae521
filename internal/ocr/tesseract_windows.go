//go:build windows

package ocr

import (
	"context"
	"errors"

	"github.com/foxxcyber/aisle-list/internal/services"
)

// ErrUnavailable is returned on platforms without Tesseract bindings
var ErrUnavailable = errors.New("OCR engine is not available on Windows - run in Docker container")

// Engine is a stub on Windows
type Engine struct{}

// NewEngine always fails on Windows
func NewEngine(language string) (*Engine, error) {
	return nil, ErrUnavailable
}

// Recognize always fails on Windows
func (e *Engine) Recognize(ctx context.Context, image []byte) (*services.OCRResult, error) {
	return nil, ErrUnavailable
}

// Close releases OCR resources
func (e *Engine) Close() error {
	return nil
}
