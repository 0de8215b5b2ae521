package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/aisle-list/internal/middleware"
	"github.com/foxxcyber/aisle-list/internal/models"
	"github.com/foxxcyber/aisle-list/internal/services"
)

// VisionKeyHeader lets a client supply its own OpenAI key per request
const VisionKeyHeader = "X-OpenAI-Key"

type upload struct {
	data        []byte
	contentType string
}

// Scan runs OCR over an uploaded photo of a list
func (h *Handler) Scan(c *fiber.Ctx) error {
	if h.Scanner == nil {
		return h.unavailable(c, "OCR")
	}

	up, err := h.readUpload(c)
	if err != nil {
		return err
	}

	prepared, err := services.PrepareImage(up.data)
	if err != nil {
		return scanError(err)
	}

	ctx, cancel := h.scanContext(c)
	defer cancel()

	result, err := h.Scanner.ProcessPrepared(ctx, prepared, h.progressLogger(c))
	if err != nil {
		h.Logger.Warn("scan.failed", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		return scanError(err)
	}

	if objects := h.storeScan(ctx, prepared, up); objects != nil {
		result.ImageKey = &objects.ImageKey
		result.ThumbnailKey = &objects.ThumbnailKey
	}

	h.Logger.Info("scan.completed",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Int("items", len(result.Items)),
		zap.Float64("ocr_confidence", result.OCRConfidence),
		zap.Bool("suggest_magic_mode", result.SuggestMagicMode),
	)
	return Success(c, result)
}

// MagicScan sends the photo to the vision model and maps its answer onto the scaffold
func (h *Handler) MagicScan(c *fiber.Ctx) error {
	if h.Vision == nil || h.Resolver == nil {
		return h.unavailable(c, "magic mode")
	}

	up, err := h.readUpload(c)
	if err != nil {
		return err
	}

	prepared, err := services.PrepareImage(up.data)
	if err != nil {
		return scanError(err)
	}

	ctx, cancel := h.scanContext(c)
	defer cancel()

	requestKey := c.Get(VisionKeyHeader)
	if requestKey == "" {
		requestKey = c.FormValue("api_key")
	}
	key, err := h.Resolver.Resolve(ctx, requestKey)
	if err != nil {
		return scanError(err)
	}

	resp, err := h.Vision.Parse(ctx, prepared.Normalized, "image/jpeg", key.Key)
	if err != nil {
		h.Logger.Warn("magic.failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Bool("shared_key", key.Shared),
			zap.Error(err),
		)
		return scanError(err)
	}
	if err := h.Resolver.RecordUsage(ctx, key); err != nil {
		h.Logger.Error("magic.usage_not_recorded", zap.Error(err))
	}

	checklist := h.Builder.Finalize(services.DedupeItems(h.Mapper.MapItems(resp.Items)))
	warnings := resp.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	result := &models.MagicScanResult{
		ListTitle:        resp.ListTitle,
		Items:            checklist.Items,
		Sections:         checklist.Sections,
		Warnings:         warnings,
		UsedShare:        key.Shared,
		ImageHash:        prepared.Hash,
		ThumbnailDataURL: prepared.ThumbnailDataURL,
	}
	if objects := h.storeScan(ctx, prepared, up); objects != nil {
		result.ImageKey = &objects.ImageKey
		result.ThumbnailKey = &objects.ThumbnailKey
	}

	h.Logger.Info("magic.completed",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Int("items", len(result.Items)),
		zap.Int("warnings", len(warnings)),
	)
	return Success(c, result)
}

func (h *Handler) readUpload(c *fiber.Ctx) (*upload, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "image file is required")
	}

	contentType := file.Header.Get("Content-Type")
	if !isValidImageType(contentType) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid image type. Supported: JPEG, PNG, WebP")
	}

	if file.Size > h.cfg.MaxUploadBytes() {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("file too large. Maximum size is %dMB", h.cfg.MaxUploadMB))
	}

	src, err := file.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to read file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to read file")
	}

	return &upload{data: data, contentType: strings.ToLower(contentType)}, nil
}

func (h *Handler) scanContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.cfg.ScanTimeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.cfg.ScanTimeout)
}

func (h *Handler) progressLogger(c *fiber.Ctx) services.ProgressFunc {
	requestID := middleware.GetRequestID(c)
	return func(p models.PipelineProgress) {
		h.Logger.Debug("scan.progress",
			zap.String("request_id", requestID),
			zap.String("status", string(p.Status)),
			zap.Float64("progress", p.Progress),
		)
	}
}

// storeScan keeps the photo when object storage is configured. Failure is
// logged and the scan result is still returned.
func (h *Handler) storeScan(ctx context.Context, prepared *services.PreparedImage, up *upload) *services.ScanObjects {
	if h.Storage == nil {
		return nil
	}
	objects, err := h.Storage.SaveScan(ctx, prepared.Hash, up.data, up.contentType, prepared.Thumbnail)
	if err != nil {
		h.Logger.Warn("scan.store_failed", zap.String("image_hash", prepared.Hash), zap.Error(err))
		return nil
	}
	return objects
}

func scanError(err error) *fiber.Error {
	switch {
	case errors.Is(err, services.ErrScanCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusRequestTimeout, "scan was cancelled or timed out")
	case errors.Is(err, services.ErrImageDecode):
		return fiber.NewError(fiber.StatusBadRequest, "could not decode image")
	case errors.Is(err, services.ErrVisionKeyRequired):
		return fiber.NewError(fiber.StatusBadRequest, "an OpenAI API key is required for magic mode")
	case errors.Is(err, services.ErrVisionKeyInvalid):
		return fiber.NewError(fiber.StatusBadRequest, "the OpenAI API key looks invalid")
	case errors.Is(err, services.ErrSharedLimitReached):
		return fiber.NewError(fiber.StatusTooManyRequests, "shared magic mode limit reached for today")
	case errors.Is(err, services.ErrVisionMalformed):
		return fiber.NewError(fiber.StatusBadGateway, "vision model returned an unusable answer")
	case errors.Is(err, services.ErrVisionRequest):
		return fiber.NewError(fiber.StatusBadGateway, "vision request failed")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "scan failed")
	}
}

func isValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/webp",
	}

	for _, t := range validTypes {
		if strings.EqualFold(contentType, t) {
			return true
		}
	}
	return false
}
