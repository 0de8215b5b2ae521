package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/aisle-list/internal/models"
	"github.com/foxxcyber/aisle-list/internal/services"
)

// TextRequest carries free text to parse
type TextRequest struct {
	Text   string            `json:"text"`
	Source models.ItemSource `json:"source,omitempty"`
}

// LineRequest carries a single candidate line
type LineRequest struct {
	Line string `json:"line"`
}

// CategorizeRequest carries one name or a batch of names
type CategorizeRequest struct {
	Name  string   `json:"name"`
	Names []string `json:"names"`
}

// ItemsRequest carries an item set
type ItemsRequest struct {
	Items []models.ShoppingItem `json:"items"`
}

// ScaleRequest carries a quantity and a multiplier
type ScaleRequest struct {
	Quantity   *string `json:"quantity"`
	Multiplier float64 `json:"multiplier"`
}

// SplitLines splits raw text into candidate item lines
func (h *Handler) SplitLines(c *fiber.Ctx) error {
	var req TextRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	return Success(c, fiber.Map{
		"lines": h.Builder.Parser().SplitLines(req.Text),
	})
}

// ParseQuantity splits one line into name, quantity and notes
func (h *Handler) ParseQuantity(c *fiber.Ctx) error {
	var req LineRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	return Success(c, h.Builder.Parser().ParseQuantityAndNotes(req.Line))
}

// Categorize classifies one name, or each name of a batch in order
func (h *Handler) Categorize(c *fiber.Ctx) error {
	var req CategorizeRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	categorizer := h.Builder.Categorizer()
	if len(req.Names) > 0 {
		results := make([]models.CategorizedName, 0, len(req.Names))
		for _, name := range req.Names {
			results = append(results, categorizer.Categorize(name))
		}
		return Success(c, results)
	}

	if strings.TrimSpace(req.Name) == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}
	return Success(c, categorizer.Categorize(req.Name))
}

// DedupeItems merges items that share a normalized name
func (h *Handler) DedupeItems(c *fiber.Ctx) error {
	var req ItemsRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	return Success(c, fiber.Map{
		"items": services.DedupeItems(req.Items),
	})
}

// OrderItems sorts items into store walking order
func (h *Handler) OrderItems(c *fiber.Ctx) error {
	var req ItemsRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	return Success(c, fiber.Map{
		"items": h.Builder.Ordering().BuildOrderedItems(req.Items),
	})
}

// BuildSections groups items into display sections
func (h *Handler) BuildSections(c *fiber.Ctx) error {
	var req ItemsRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	return Success(c, fiber.Map{
		"sections": h.Builder.Ordering().BuildSections(req.Items),
	})
}

// ParseText runs the whole text pipeline and returns an ordered checklist
func (h *Handler) ParseText(c *fiber.Ctx) error {
	var req TextRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	source := req.Source
	if source == "" {
		source = models.SourceManual
	}

	return Success(c, h.Builder.BuildFromText(req.Text, source))
}

// ScaleQuantity multiplies the numbers in a quantity string
func (h *Handler) ScaleQuantity(c *fiber.Ctx) error {
	var req ScaleRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Multiplier <= 0 {
		return Error(c, fiber.StatusBadRequest, "multiplier must be positive")
	}

	return Success(c, fiber.Map{
		"quantity": services.ScaleQuantity(req.Quantity, req.Multiplier),
	})
}

// Scaffold returns the store section scaffold
func (h *Handler) Scaffold(c *fiber.Ctx) error {
	return Success(c, fiber.Map{
		"sections": services.MajorSections(),
		"prompt":   services.PromptScaffold(),
	})
}
