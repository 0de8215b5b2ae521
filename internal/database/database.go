package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DB wraps the connection pool
type DB struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// Connect creates a new database connection pool
func Connect(databaseURL string, logger *zap.Logger) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	// Configure pool
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	logger.Info("database.connected")
	return &DB{Pool: pool, logger: logger}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// RunMigrations runs all database migrations in version order
func RunMigrations(db *DB) error {
	ctx := context.Background()

	// Create migrations table if it doesn't exist
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, version := range migrationVersions() {
		var exists bool
		err := db.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", version, err)
		}

		if exists {
			continue
		}

		db.logger.Info("database.migration_applying", zap.Int("version", version))
		if _, err = db.Pool.Exec(ctx, migrations[version]); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}

		_, err = db.Pool.Exec(ctx,
			"INSERT INTO schema_migrations (version) VALUES ($1)",
			version,
		)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
	}

	return nil
}

func migrationVersions() []int {
	versions := make([]int, 0, len(migrations))
	for v := range migrations {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions
}

var migrations = map[int]string{
	1: `
		CREATE TABLE IF NOT EXISTS shopping_lists (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			image_hash TEXT,
			image_key TEXT,
			thumbnail_key TEXT,
			raw_text TEXT NOT NULL DEFAULT '',
			ocr_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			ocr_meta JSONB,
			used_magic_mode BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_shopping_lists_updated ON shopping_lists(updated_at DESC);
		CREATE INDEX IF NOT EXISTS idx_shopping_lists_image_hash ON shopping_lists(image_hash);
	`,
	2: `
		CREATE TABLE IF NOT EXISTS list_items (
			id TEXT NOT NULL,
			list_id TEXT NOT NULL REFERENCES shopping_lists(id) ON DELETE CASCADE,
			position INT NOT NULL DEFAULT 0,
			raw_text TEXT NOT NULL DEFAULT '',
			canonical_name TEXT NOT NULL,
			normalized_name TEXT NOT NULL,
			quantity TEXT,
			notes TEXT,
			category_id TEXT NOT NULL DEFAULT 'other',
			subcategory_id TEXT,
			order_hint INT,
			checked BOOLEAN NOT NULL DEFAULT FALSE,
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT 'manual',
			category_overridden BOOLEAN NOT NULL DEFAULT FALSE,
			major_section_id TEXT,
			major_section_label TEXT,
			major_subsection TEXT,
			major_section_order INT,
			major_section_item_order INT,
			PRIMARY KEY (list_id, id)
		);

		CREATE INDEX IF NOT EXISTS idx_list_items_list ON list_items(list_id, position);
	`,
	3: `
		CREATE TABLE IF NOT EXISTS system_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT '',
			value_type TEXT NOT NULL DEFAULT 'string',
			category TEXT NOT NULL DEFAULT 'general',
			description TEXT NOT NULL DEFAULT '',
			is_sensitive BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		INSERT INTO system_settings (key, value, value_type, category, description, is_sensitive)
		VALUES ('vision_api_key', '', 'encrypted', 'vision', 'Operator OpenAI API key for magic mode', TRUE)
		ON CONFLICT (key) DO NOTHING;
	`,
	4: `
		CREATE TABLE IF NOT EXISTS vision_usage (
			day TEXT PRIMARY KEY,
			count INT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`,
}
