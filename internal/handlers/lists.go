package handlers

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/aisle-list/internal/database"
	"github.com/foxxcyber/aisle-list/internal/middleware"
	"github.com/foxxcyber/aisle-list/internal/models"
	"github.com/foxxcyber/aisle-list/internal/services"
)

// DefaultListTitle names lists saved without a title
const DefaultListTitle = "Shopping List"

const thumbnailURLExpiry = 15 * time.Minute

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ListShoppingLists returns saved lists
func (h *Handler) ListShoppingLists(c *fiber.Ctx) error {
	if h.Lists == nil {
		return h.unavailable(c, "persistence")
	}

	params := &models.ListListParams{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if params.Limit <= 0 || params.Limit > 200 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	lists, total, err := h.Lists.ListShoppingLists(c.Context(), params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to fetch lists")
	}

	return SuccessWithMeta(c, lists, total, params.Limit, params.Offset)
}

// GetShoppingList returns a list with its items in store order and its sections
func (h *Handler) GetShoppingList(c *fiber.Ctx) error {
	if h.Lists == nil {
		return h.unavailable(c, "persistence")
	}

	list, err := h.loadList(c)
	if err != nil {
		return err
	}

	return Success(c, list)
}

// CreateShoppingList saves a reviewed checklist
func (h *Handler) CreateShoppingList(c *fiber.Ctx) error {
	if h.Lists == nil {
		return h.unavailable(c, "persistence")
	}

	var req models.CreateListRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		req.Title = DefaultListTitle
	}
	items, err := h.Builder.PrepareItems(req.Items)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "every item needs a name")
	}
	req.Items = h.Builder.Ordering().BuildOrderedItems(items)

	created, err := h.Lists.CreateShoppingList(c.Context(), &req)
	if err != nil {
		h.Logger.Error("list.create_failed", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to create list")
	}

	list, err := h.Lists.GetShoppingListByID(c.Context(), created.ID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to fetch list")
	}
	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data:    h.present(list),
	})
}

// DeleteShoppingList removes a list and its photo once no other list uses it
func (h *Handler) DeleteShoppingList(c *fiber.Ctx) error {
	if h.Lists == nil {
		return h.unavailable(c, "persistence")
	}

	list, err := h.Lists.GetShoppingListByID(c.Context(), c.Params("id"))
	if err != nil {
		return listError(err)
	}

	if err := h.Lists.DeleteShoppingList(c.Context(), list.ID); err != nil {
		return listError(err)
	}

	if h.Storage != nil && list.ImageHash != nil {
		inUse, err := h.Lists.ImageHashInUse(c.Context(), *list.ImageHash)
		if err == nil && !inUse {
			keys := make([]string, 0, 2)
			for _, k := range []*string{list.ImageKey, list.ThumbnailKey} {
				if k != nil && *k != "" {
					keys = append(keys, *k)
				}
			}
			if err := h.Storage.DeleteScan(c.Context(), keys...); err != nil {
				h.Logger.Warn("list.photo_delete_failed", zap.String("list_id", list.ID), zap.Error(err))
			}
		}
	}

	return Success(c, fiber.Map{"deleted": list.ID})
}

// AddItems merges typed text or an item batch into a saved list
func (h *Handler) AddItems(c *fiber.Ctx) error {
	if h.Lists == nil {
		return h.unavailable(c, "persistence")
	}

	var req models.AddItemsRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	incoming, err := h.Builder.PrepareItems(req.Items)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "every item needs a name")
	}
	if strings.TrimSpace(req.Text) != "" {
		incoming = append(incoming, h.Builder.BuildFromText(req.Text, models.SourceManual).Items...)
	}
	if len(incoming) == 0 {
		return Error(c, fiber.StatusBadRequest, "items or text is required")
	}

	return h.collateInto(c, incoming)
}

// AddScan runs OCR over another photo and merges its items into a saved list
func (h *Handler) AddScan(c *fiber.Ctx) error {
	if h.Lists == nil {
		return h.unavailable(c, "persistence")
	}
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
		return scanError(err)
	}

	return h.collateInto(c, result.Items)
}

func (h *Handler) collateInto(c *fiber.Ctx, incoming []models.ShoppingItem) error {
	list, err := h.Lists.GetShoppingListByID(c.Context(), c.Params("id"))
	if err != nil {
		return listError(err)
	}

	merged := h.Builder.Ordering().CollateItems(list.Items, incoming)
	if err := h.Lists.ReplaceListItems(c.Context(), list.ID, merged); err != nil {
		return listError(err)
	}

	h.Logger.Info("list.items_collated",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("list_id", list.ID),
		zap.Int("before", len(list.Items)),
		zap.Int("incoming", len(incoming)),
		zap.Int("after", len(merged)),
	)

	updated, err := h.loadList(c)
	if err != nil {
		return err
	}
	return Success(c, updated)
}

// UpdateListItem edits one item: check state, name, quantity, notes or category
func (h *Handler) UpdateListItem(c *fiber.Ctx) error {
	if h.Lists == nil {
		return h.unavailable(c, "persistence")
	}

	var req models.UpdateListItemRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	list, err := h.Lists.GetShoppingListByID(c.Context(), c.Params("id"))
	if err != nil {
		return listError(err)
	}

	itemID := c.Params("item_id")
	var current *models.ShoppingItem
	for i := range list.Items {
		if list.Items[i].ID == itemID {
			current = &list.Items[i]
			break
		}
	}
	if current == nil {
		return Error(c, fiber.StatusNotFound, "list item not found")
	}

	edited, err := h.Builder.EditItem(*current, req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCategory) || errors.Is(err, services.ErrEmptyItemName) {
			return Error(c, fiber.StatusBadRequest, err.Error())
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update item")
	}

	if err := h.Lists.UpdateListItem(c.Context(), list.ID, &edited); err != nil {
		return listError(err)
	}

	return Success(c, edited)
}

// ExportShoppingList downloads a list as an XLSX checklist
func (h *Handler) ExportShoppingList(c *fiber.Ctx) error {
	if h.Lists == nil {
		return h.unavailable(c, "persistence")
	}

	list, err := h.Lists.GetShoppingListByID(c.Context(), c.Params("id"))
	if err != nil {
		return listError(err)
	}

	data, err := h.Exporter.ExportXLSX(list.Title, list.Items)
	if err != nil {
		h.Logger.Error("list.export_failed", zap.String("list_id", list.ID), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to export list")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.xlsx"`, exportFilename(list.Title)))
	return c.Send(data)
}

// GetThumbnail redirects to a short-lived URL for the list's photo thumbnail
func (h *Handler) GetThumbnail(c *fiber.Ctx) error {
	if h.Lists == nil {
		return h.unavailable(c, "persistence")
	}
	if h.Storage == nil {
		return h.unavailable(c, "storage")
	}

	list, err := h.Lists.GetShoppingListByID(c.Context(), c.Params("id"))
	if err != nil {
		return listError(err)
	}
	if list.ThumbnailKey == nil || *list.ThumbnailKey == "" {
		return Error(c, fiber.StatusNotFound, "list has no photo")
	}

	url, err := h.Storage.GetPresignedURL(c.Context(), *list.ThumbnailKey, thumbnailURLExpiry)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to sign thumbnail URL")
	}
	return c.Redirect(url, fiber.StatusTemporaryRedirect)
}

func (h *Handler) loadList(c *fiber.Ctx) (*models.ShoppingListWithItems, error) {
	list, err := h.Lists.GetShoppingListByID(c.Context(), c.Params("id"))
	if err != nil {
		return nil, listError(err)
	}
	return h.present(list), nil
}

// present orders a stored list and fills its sections and counts
func (h *Handler) present(list *models.ShoppingListWithItems) *models.ShoppingListWithItems {
	checklist := h.Builder.Finalize(list.Items)
	list.Items = checklist.Items
	list.Sections = checklist.Sections
	list.ItemCount = len(list.Items)
	list.RemainingCount = 0
	for _, item := range list.Items {
		if !item.Checked {
			list.RemainingCount++
		}
	}
	return list
}

func listError(err error) *fiber.Error {
	switch {
	case errors.Is(err, database.ErrListNotFound):
		return fiber.NewError(fiber.StatusNotFound, "list not found")
	case errors.Is(err, database.ErrListItemNotFound):
		return fiber.NewError(fiber.StatusNotFound, "list item not found")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "list operation failed")
	}
}

func exportFilename(title string) string {
	name := strings.Trim(unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(title), "-"), "-")
	if name == "" {
		return "shopping-list"
	}
	return strings.ToLower(name)
}
