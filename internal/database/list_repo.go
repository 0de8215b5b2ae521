package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/aisle-list/internal/models"
)

var (
	ErrListNotFound     = errors.New("shopping list not found")
	ErrListItemNotFound = errors.New("list item not found")
)

const listColumns = `
	id, title, image_hash, image_key, thumbnail_key, raw_text, ocr_confidence, ocr_meta,
	used_magic_mode, created_at, updated_at`

const itemColumns = `
	id, raw_text, canonical_name, normalized_name, quantity, notes,
	category_id, subcategory_id, order_hint, checked, confidence, source,
	category_overridden, major_section_id, major_section_label, major_subsection,
	major_section_order, major_section_item_order`

// ListShoppingLists returns saved lists, most recently updated first
func (db *DB) ListShoppingLists(ctx context.Context, params *models.ListListParams) ([]*models.ShoppingListSummary, int, error) {
	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM shopping_lists`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT
			sl.id, sl.title, sl.used_magic_mode, sl.created_at, sl.updated_at,
			COALESCE((SELECT COUNT(*) FROM list_items WHERE list_id = sl.id), 0) AS item_count,
			COALESCE((SELECT COUNT(*) FROM list_items WHERE list_id = sl.id AND NOT checked), 0) AS remaining_count
		FROM shopping_lists sl
		ORDER BY sl.updated_at DESC
		LIMIT $1 OFFSET $2
	`, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	lists := []*models.ShoppingListSummary{}
	for rows.Next() {
		l := &models.ShoppingListSummary{}
		if err := rows.Scan(&l.ID, &l.Title, &l.UsedMagicMode, &l.CreatedAt, &l.UpdatedAt, &l.ItemCount, &l.RemainingCount); err != nil {
			return nil, 0, err
		}
		lists = append(lists, l)
	}

	return lists, total, rows.Err()
}

// GetShoppingListByID retrieves a list with its items in stored position order
func (db *DB) GetShoppingListByID(ctx context.Context, id string) (*models.ShoppingListWithItems, error) {
	list := &models.ShoppingListWithItems{}
	err := db.Pool.QueryRow(ctx, `
		SELECT `+listColumns+`
		FROM shopping_lists
		WHERE id = $1
	`, id).Scan(
		&list.ID, &list.Title, &list.ImageHash, &list.ImageKey, &list.ThumbnailKey, &list.RawText, &list.OCRConfidence,
		&list.OCRMeta, &list.UsedMagicMode, &list.CreatedAt, &list.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListNotFound
		}
		return nil, err
	}

	rows, err := db.Pool.Query(ctx, `SELECT `+itemColumns+` FROM list_items WHERE list_id = $1 ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list.Items = []models.ShoppingItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
		if !item.Checked {
			list.RemainingCount++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	list.ItemCount = len(list.Items)
	return list, nil
}

// CreateShoppingList saves a list and its items
func (db *DB) CreateShoppingList(ctx context.Context, req *models.CreateListRequest) (*models.ShoppingList, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	list := &models.ShoppingList{}
	err = tx.QueryRow(ctx, `
		INSERT INTO shopping_lists (id, title, image_hash, image_key, thumbnail_key, raw_text, ocr_confidence, ocr_meta, used_magic_mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+listColumns+`
	`, uuid.NewString(), req.Title, req.ImageHash, req.ImageKey, req.ThumbnailKey, req.RawText, req.OCRConfidence, req.OCRMeta, req.UsedMagicMode).Scan(
		&list.ID, &list.Title, &list.ImageHash, &list.ImageKey, &list.ThumbnailKey, &list.RawText, &list.OCRConfidence,
		&list.OCRMeta, &list.UsedMagicMode, &list.CreatedAt, &list.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert list: %w", err)
	}

	if err := insertItems(ctx, tx, list.ID, req.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return list, nil
}

// ReplaceListItems overwrites a list's items with the given ordered set
func (db *DB) ReplaceListItems(ctx context.Context, listID string, items []models.ShoppingItem) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `UPDATE shopping_lists SET updated_at = NOW() WHERE id = $1`, listID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrListNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM list_items WHERE list_id = $1`, listID); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, listID, items); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateListItem writes every editable column of one item
func (db *DB) UpdateListItem(ctx context.Context, listID string, item *models.ShoppingItem) error {
	result, err := db.Pool.Exec(ctx, `
		UPDATE list_items SET
			canonical_name = $3, normalized_name = $4, quantity = $5, notes = $6,
			category_id = $7, subcategory_id = $8, order_hint = $9, checked = $10,
			confidence = $11, category_overridden = $12, major_section_id = $13,
			major_section_label = $14, major_subsection = $15, major_section_order = $16,
			major_section_item_order = $17
		WHERE id = $2 AND list_id = $1
	`, listID, item.ID, item.CanonicalName, item.NormalizedName, item.Quantity, item.Notes,
		item.CategoryID, item.SubcategoryID, item.OrderHint, item.Checked,
		item.Confidence, item.CategoryOverridden, item.MajorSectionID,
		item.MajorSectionLabel, item.MajorSubsection, item.MajorSectionOrder,
		item.MajorSectionItemOrder)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrListItemNotFound
	}

	_, err = db.Pool.Exec(ctx, `UPDATE shopping_lists SET updated_at = NOW() WHERE id = $1`, listID)
	return err
}

// DeleteShoppingList removes a list and, by cascade, its items
func (db *DB) DeleteShoppingList(ctx context.Context, id string) error {
	result, err := db.Pool.Exec(ctx, `DELETE FROM shopping_lists WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrListNotFound
	}
	return nil
}

// ImageHashInUse reports whether any saved list still references a scan photo
func (db *DB) ImageHashInUse(ctx context.Context, imageHash string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM shopping_lists WHERE image_hash = $1)",
		imageHash,
	).Scan(&exists)
	return exists, err
}

func insertItems(ctx context.Context, tx pgx.Tx, listID string, items []models.ShoppingItem) error {
	batch := &pgx.Batch{}
	for position, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		batch.Queue(`
			INSERT INTO list_items (list_id, position, `+itemColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		`, listID, position, item.ID, item.RawText, item.CanonicalName, item.NormalizedName,
			item.Quantity, item.Notes, item.CategoryID, item.SubcategoryID, item.OrderHint,
			item.Checked, item.Confidence, item.Source, item.CategoryOverridden,
			item.MajorSectionID, item.MajorSectionLabel, item.MajorSubsection,
			item.MajorSectionOrder, item.MajorSectionItemOrder)
	}

	results := tx.SendBatch(ctx, batch)
	for range items {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert list item: %w", err)
		}
	}
	return results.Close()
}

func scanItem(row pgx.Row) (models.ShoppingItem, error) {
	var item models.ShoppingItem
	err := row.Scan(
		&item.ID, &item.RawText, &item.CanonicalName, &item.NormalizedName, &item.Quantity, &item.Notes,
		&item.CategoryID, &item.SubcategoryID, &item.OrderHint, &item.Checked, &item.Confidence, &item.Source,
		&item.CategoryOverridden, &item.MajorSectionID, &item.MajorSectionLabel, &item.MajorSubsection,
		&item.MajorSectionOrder, &item.MajorSectionItemOrder,
	)
	return item, err
}
