package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	// Create stores and operators tables
	if err := createDirectoryTables(ctx, db); err != nil {
		return err
	}

	// Create conversations table
	if err := createConversationsTable(ctx, db); err != nil {
		return err
	}

	// Create catalog tables (categories, products, variants)
	if err := createCatalogTables(ctx, db); err != nil {
		return err
	}

	// Create orders table for reports
	return createOrdersTable(ctx, db)
}

func createDirectoryTables(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS stores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS operators (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		store_id INTEGER NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		phone TEXT,
		line_user_id TEXT,
		language TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_operators_phone ON operators(phone) WHERE phone IS NOT NULL;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_operators_line_user ON operators(line_user_id) WHERE line_user_id IS NOT NULL;
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create directory tables: %w", err)
	}

	return nil
}

func createConversationsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS conversations (
		identity TEXT PRIMARY KEY,
		current_state TEXT NOT NULL,
		context TEXT NOT NULL,
		version INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_updated_at ON conversations(updated_at);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create conversations table: %w", err)
	}

	return nil
}

func createCatalogTables(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		store_id INTEGER NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
		parent_id INTEGER REFERENCES categories(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_store_parent_name
		ON categories(store_id, IFNULL(parent_id, 0), name COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		store_id INTEGER NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
		category_id INTEGER NOT NULL REFERENCES categories(id),
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		base_sku TEXT NOT NULL,
		price REAL NOT NULL,
		images TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_store_category ON products(store_id, category_id);

	CREATE TABLE IF NOT EXISTS variants (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		sku TEXT NOT NULL UNIQUE,
		price REAL NOT NULL,
		stock INTEGER NOT NULL CHECK(stock >= 0),
		options TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_variants_product ON variants(product_id);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create catalog tables: %w", err)
	}

	return nil
}

func createOrdersTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		store_id INTEGER NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
		total REAL NOT NULL,
		status TEXT CHECK(status IN ('open', 'paid', 'cancelled')) NOT NULL DEFAULT 'open',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orders_store ON orders(store_id, status);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}

	return nil
}
