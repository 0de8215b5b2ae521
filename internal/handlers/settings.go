package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/aisle-list/internal/database"
	"github.com/foxxcyber/aisle-list/internal/services"
)

// VisionKeyRequest sets or clears the operator's vision key
type VisionKeyRequest struct {
	APIKey string `json:"api_key"`
}

// VisionKeyStatus describes which vision keys are available
type VisionKeyStatus struct {
	Configured      bool   `json:"configured"`
	Masked          string `json:"masked,omitempty"`
	SharedAvailable bool   `json:"shared_available"`
}

// GetSettingsByCategory returns the settings of a category, sensitive values masked
func (h *Handler) GetSettingsByCategory(c *fiber.Ctx) error {
	if h.Settings == nil {
		return h.unavailable(c, "persistence")
	}

	category := c.Params("category")
	if category == "" {
		return Error(c, fiber.StatusBadRequest, "category is required")
	}

	settings, err := h.Settings.GetSettingsByCategory(c.Context(), category)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to get settings")
	}

	return Success(c, settings)
}

// GetVisionKey reports whether a vision key is saved, without revealing it
func (h *Handler) GetVisionKey(c *fiber.Ctx) error {
	if h.VisionKeys == nil {
		return h.unavailable(c, "persistence")
	}

	key, err := h.VisionKeys.UserVisionKey(c.Context())
	if err != nil {
		h.Logger.Error("settings.vision_key_read_failed", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to read vision key")
	}

	status := VisionKeyStatus{
		Configured:      key != "",
		SharedAvailable: services.IsLikelyOpenAIKey(h.cfg.OpenAIAPIKey),
	}
	if key != "" {
		status.Masked = maskKey(key)
	}
	return Success(c, status)
}

// SetVisionKey saves the operator's vision key. An empty key clears it.
func (h *Handler) SetVisionKey(c *fiber.Ctx) error {
	if h.VisionKeys == nil {
		return h.unavailable(c, "persistence")
	}

	var req VisionKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	key := strings.TrimSpace(req.APIKey)
	if key == database.MaskedValue {
		return Success(c, fiber.Map{"updated": false})
	}
	if key != "" && !services.IsLikelyOpenAIKey(key) {
		return Error(c, fiber.StatusBadRequest, "the OpenAI API key looks invalid")
	}

	if err := h.VisionKeys.SetUserVisionKey(c.Context(), key); err != nil {
		h.Logger.Error("settings.vision_key_write_failed", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to save vision key")
	}

	h.Logger.Info("settings.vision_key_updated", zap.Bool("cleared", key == ""))
	return Success(c, fiber.Map{"updated": true})
}

// maskKey keeps the prefix and the last four characters
func maskKey(key string) string {
	if len(key) <= 8 {
		return database.MaskedValue
	}
	return key[:3] + database.MaskedValue + key[len(key)-4:]
}
