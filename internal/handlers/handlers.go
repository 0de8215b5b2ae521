package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/aisle-list/internal/config"
	"github.com/foxxcyber/aisle-list/internal/database"
	"github.com/foxxcyber/aisle-list/internal/models"
	"github.com/foxxcyber/aisle-list/internal/services"
)

// ListStore persists checklists. Implemented by *database.DB.
type ListStore interface {
	ListShoppingLists(ctx context.Context, params *models.ListListParams) ([]*models.ShoppingListSummary, int, error)
	GetShoppingListByID(ctx context.Context, id string) (*models.ShoppingListWithItems, error)
	CreateShoppingList(ctx context.Context, req *models.CreateListRequest) (*models.ShoppingList, error)
	ReplaceListItems(ctx context.Context, listID string, items []models.ShoppingItem) error
	UpdateListItem(ctx context.Context, listID string, item *models.ShoppingItem) error
	DeleteShoppingList(ctx context.Context, id string) error
	ImageHashInUse(ctx context.Context, imageHash string) (bool, error)
}

// SettingsStore exposes stored settings. Implemented by *database.DB.
type SettingsStore interface {
	GetSettingsByCategory(ctx context.Context, category string) ([]database.SystemSetting, error)
}

// VisionKeyStore reads and writes the operator's vision key
type VisionKeyStore interface {
	UserVisionKey(ctx context.Context) (string, error)
	SetUserVisionKey(ctx context.Context, key string) error
}

// VisionParser extracts a structured list from a photo
type VisionParser interface {
	Parse(ctx context.Context, image []byte, mimeType, apiKey string) (*models.MagicResponse, error)
}

// ImageScanner runs OCR attempts over a decoded photo
type ImageScanner interface {
	ProcessPrepared(ctx context.Context, prepared *services.PreparedImage, onProgress services.ProgressFunc) (*models.ScanResult, error)
}

// ScanStorage keeps scan photos in object storage
type ScanStorage interface {
	SaveScan(ctx context.Context, imageHash string, original []byte, contentType string, thumbnail []byte) (*services.ScanObjects, error)
	GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	DeleteScan(ctx context.Context, keys ...string) error
}

// Dependencies are the collaborators a Handler is built from. Nil
// collaborators disable the routes that need them.
type Dependencies struct {
	Lists      ListStore
	Settings   SettingsStore
	VisionKeys VisionKeyStore
	Builder    *services.ListBuilder
	Scanner    ImageScanner
	Vision     VisionParser
	Mapper     *services.MagicMapper
	Resolver   *services.VisionKeyResolver
	Exporter   *services.ChecklistExporter
	Storage    ScanStorage
	Logger     *zap.Logger
}

// Handler holds all handler dependencies
type Handler struct {
	cfg *config.Config
	Dependencies
}

// New creates a new Handler instance
func New(cfg *config.Config, deps Dependencies) *Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Handler{cfg: cfg, Dependencies: deps}
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful response with pagination
func SuccessWithMeta(c *fiber.Ctx, data interface{}, total, limit, offset int) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// Health reports liveness
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "ok",
		"ocr":         h.Scanner != nil,
		"magic_mode":  h.Vision != nil,
		"storage":     h.Storage != nil,
		"persistence": h.Lists != nil,
	})
}

func (h *Handler) unavailable(c *fiber.Ctx, feature string) error {
	return Error(c, fiber.StatusServiceUnavailable, feature+" is not configured")
}
