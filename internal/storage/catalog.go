package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garyellow/storebot/internal/catalog"
	domerrors "github.com/garyellow/storebot/internal/errors"
)

var _ catalog.Gateway = (*DB)(nil)
var _ catalog.OperatorDirectory = (*DB)(nil)

// CreateCategory inserts a category. A name already used under the same
// parent (case-insensitive) fails with errors.ErrDuplicate.
func (db *DB) CreateCategory(ctx context.Context, storeID int64, parentID *int64, name string) (*catalog.Category, error) {
	now := time.Now().UnixMilli()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO categories (store_id, parent_id, name, created_at) VALUES (?, ?, ?, ?)`,
		storeID, nullInt64(parentID), name, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("category %q: %w", name, domerrors.ErrDuplicate)
		}
		slog.ErrorContext(ctx, "failed to create category",
			"store_id", storeID,
			"error", err)
		return nil, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &catalog.Category{ID: id, StoreID: storeID, ParentID: parentID, Name: name, CreatedAt: unixMilli(now)}, nil
}

const categoryColumns = `c.id, c.store_id, c.parent_id, c.name, c.created_at,
	(SELECT COUNT(*) FROM products p WHERE p.category_id = c.id)`

func scanCategory(row interface{ Scan(...any) error }) (*catalog.Category, error) {
	var (
		c         catalog.Category
		parentID  sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&c.ID, &c.StoreID, &parentID, &c.Name, &createdAt, &c.ProductCount); err != nil {
		return nil, err
	}
	if parentID.Valid {
		c.ParentID = &parentID.Int64
	}
	c.CreatedAt = unixMilli(createdAt)
	return &c, nil
}

// FindCategory returns the category of the store, nil, nil when absent.
func (db *DB) FindCategory(ctx context.Context, storeID, id int64) (*catalog.Category, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories c WHERE c.store_id = ? AND c.id = ?`, storeID, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}
	return c, nil
}

// FindCategoryByName looks a category up by name, ignoring case.
func (db *DB) FindCategoryByName(ctx context.Context, storeID int64, name string) (*catalog.Category, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories c
		WHERE c.store_id = ? AND c.name = ? COLLATE NOCASE
		ORDER BY c.id LIMIT 1`, storeID, name)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query category by name: %w", err)
	}
	return c, nil
}

// ListCategories returns the children of parentID (top level when nil) in creation order.
func (db *DB) ListCategories(ctx context.Context, storeID int64, parentID *int64) ([]catalog.Category, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories c
		WHERE c.store_id = ? AND IFNULL(c.parent_id, 0) = ?
		ORDER BY c.id`, storeID, derefInt64(parentID))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, *c)
	}
	warnIfSlow(ctx, "ListCategories", start, "store_id", storeID)
	return out, rows.Err()
}

// RenameCategory renames a category; a clash with a sibling fails with errors.ErrDuplicate.
func (db *DB) RenameCategory(ctx context.Context, storeID, id int64, name string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE categories SET name = ? WHERE store_id = ? AND id = ?`, name, storeID, id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("category %q: %w", name, domerrors.ErrDuplicate)
		}
		return fmt.Errorf("rename category: %w", err)
	}
	return requireAffected(res, "category", id)
}

// DeleteCategory removes an empty category. Categories holding products
// fail with errors.ErrNotEmpty.
func (db *DB) DeleteCategory(ctx context.Context, storeID, id int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM products WHERE store_id = ? AND category_id = ?`, storeID, id,
		).Scan(&count); err != nil {
			return fmt.Errorf("count category products: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("category %d has %d products: %w", id, count, domerrors.ErrNotEmpty)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE store_id = ? AND id = ?`, storeID, id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return requireAffected(res, "category", id)
	})
}

// CreateProduct inserts the product and all of its variants in one transaction.
func (db *DB) CreateProduct(ctx context.Context, p *catalog.Product) (*catalog.Product, error) {
	images, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}

	start := time.Now()
	out := *p
	out.CreatedAt = unixMilli(start.UnixMilli())
	out.UpdatedAt = out.CreatedAt

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO products (store_id, category_id, name, description, base_sku, price, images, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.StoreID, p.CategoryID, p.Name, p.Description, p.BaseSKU, p.Price, string(images),
			start.UnixMilli(), start.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		if out.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		out.Variants, err = insertVariants(ctx, tx, out.ID, p.Variants)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create product",
			"store_id", p.StoreID,
			"sku", p.BaseSKU,
			"error", err)
		return nil, err
	}

	warnIfSlow(ctx, "CreateProduct", start, "variants", len(p.Variants))
	return &out, nil
}

// UpdateProduct rewrites the product fields and replaces all variants in one transaction.
func (db *DB) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	images, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}

	start := time.Now()
	err = db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET category_id = ?, name = ?, description = ?, price = ?, images = ?, updated_at = ?
			WHERE store_id = ? AND id = ?`,
			p.CategoryID, p.Name, p.Description, p.Price, string(images), start.UnixMilli(), p.StoreID, p.ID)
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if err := requireAffected(res, "product", p.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM variants WHERE product_id = ?`, p.ID); err != nil {
			return fmt.Errorf("delete variants: %w", err)
		}
		_, err = insertVariants(ctx, tx, p.ID, p.Variants)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to update product",
			"product_id", p.ID,
			"error", err)
		return err
	}

	warnIfSlow(ctx, "UpdateProduct", start, "variants", len(p.Variants))
	return nil
}

func insertVariants(ctx context.Context, tx *sql.Tx, productID int64, variants []catalog.Variant) ([]catalog.Variant, error) {
	if len(variants) == 0 {
		return nil, nil
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO variants (product_id, sku, price, stock, options) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare variant insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	out := make([]catalog.Variant, 0, len(variants))
	for _, v := range variants {
		options, err := json.Marshal(nonNil(v.Options))
		if err != nil {
			return nil, fmt.Errorf("encode options: %w", err)
		}
		res, err := stmt.ExecContext(ctx, productID, v.SKU, v.Price, v.Stock, string(options))
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("variant sku %s: %w", v.SKU, domerrors.ErrDuplicate)
			}
			return nil, fmt.Errorf("insert variant %s: %w", v.SKU, err)
		}
		v.ProductID = productID
		if v.ID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("insert variant %s: %w", v.SKU, err)
		}
		out = append(out, v)
	}
	return out, nil
}

const productColumns = `id, store_id, category_id, name, description, base_sku, price, images, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*catalog.Product, error) {
	var (
		p                    catalog.Product
		images               string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&p.ID, &p.StoreID, &p.CategoryID, &p.Name, &p.Description, &p.BaseSKU, &p.Price,
		&images, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	p.CreatedAt = unixMilli(createdAt)
	p.UpdatedAt = unixMilli(updatedAt)
	return &p, nil
}

// FindProduct returns the product with its variants, nil, nil when absent.
func (db *DB) FindProduct(ctx context.Context, storeID, id int64) (*catalog.Product, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE store_id = ? AND id = ?`, storeID, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, product_id, sku, price, stock, options FROM variants WHERE product_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			v       catalog.Variant
			options string
		)
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Price, &v.Stock, &options); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		if err := json.Unmarshal([]byte(options), &v.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
		p.Variants = append(p.Variants, v)
	}
	return p, rows.Err()
}

// ListProducts returns the store's products without variants, newest last.
// categoryID 0 lists the whole store.
func (db *DB) ListProducts(ctx context.Context, storeID, categoryID int64) ([]catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE store_id = ?`
	args := []any{storeID}
	if categoryID > 0 {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// CountProducts returns the number of products of the store.
func (db *DB) CountProducts(ctx context.Context, storeID int64) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE store_id = ?`, storeID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// CreateOrder records an order of the store.
func (db *DB) CreateOrder(ctx context.Context, storeID int64, total float64, status string) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO orders (store_id, total, status, created_at) VALUES (?, ?, ?, ?)`,
		storeID, total, status, time.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("create order: %w", err)
	}
	return res.LastInsertId()
}

// OrderStats counts the store's orders that were not cancelled and sums their totals.
func (db *DB) OrderStats(ctx context.Context, storeID int64) (catalog.OrderStats, error) {
	var stats catalog.OrderStats
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), IFNULL(SUM(total), 0) FROM orders WHERE store_id = ? AND status != 'cancelled'`, storeID,
	).Scan(&stats.Count, &stats.Total)
	if err != nil {
		return catalog.OrderStats{}, fmt.Errorf("order stats: %w", err)
	}
	return stats, nil
}

func requireAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d: %w", entity, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, domerrors.ErrNotFound)
	}
	return nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
