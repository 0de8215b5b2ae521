package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SharedVisionUsage returns how many shared-key vision calls were made on day (YYYY-MM-DD)
func (db *DB) SharedVisionUsage(ctx context.Context, day string) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `SELECT count FROM vision_usage WHERE day = $1`, day).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read vision usage: %w", err)
	}
	return count, nil
}

// IncrementSharedVisionUsage counts one call and returns the new total for day
func (db *DB) IncrementSharedVisionUsage(ctx context.Context, day string) (int, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO vision_usage (day, count) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET count = vision_usage.count + 1, updated_at = NOW()
		RETURNING count
	`, day).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to record vision usage: %w", err)
	}
	return count, nil
}
