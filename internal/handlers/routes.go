package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/aisle-list/internal/middleware"
)

// RegisterRoutes mounts the API on app
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)

	api := app.Group("/api")
	api.Post("/auth/login", h.Login)
	api.Get("/scaffold", h.Scaffold)

	protected := api.Group("", middleware.AuthRequired(h.cfg))

	// Core pipeline
	protected.Post("/parse/lines", h.SplitLines)
	protected.Post("/parse/quantity", h.ParseQuantity)
	protected.Post("/parse/text", h.ParseText)
	protected.Post("/categorize", h.Categorize)
	protected.Post("/items/dedupe", h.DedupeItems)
	protected.Post("/items/order", h.OrderItems)
	protected.Post("/items/sections", h.BuildSections)
	protected.Post("/quantity/scale", h.ScaleQuantity)

	// Photos
	protected.Post("/scan", h.Scan)
	protected.Post("/scan/magic", h.MagicScan)

	// Saved lists
	protected.Get("/lists", h.ListShoppingLists)
	protected.Post("/lists", h.CreateShoppingList)
	protected.Get("/lists/:id", h.GetShoppingList)
	protected.Delete("/lists/:id", h.DeleteShoppingList)
	protected.Post("/lists/:id/items", h.AddItems)
	protected.Post("/lists/:id/scan", h.AddScan)
	protected.Put("/lists/:id/items/:item_id", h.UpdateListItem)
	protected.Get("/lists/:id/export", h.ExportShoppingList)
	protected.Get("/lists/:id/thumbnail", h.GetThumbnail)

	// Settings
	protected.Get("/settings/vision-key", h.GetVisionKey)
	protected.Put("/settings/vision-key", h.SetVisionKey)
	protected.Get("/settings/:category", h.GetSettingsByCategory)
}
