package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garyellow/storebot/internal/catalog"
	domerrors "github.com/garyellow/storebot/internal/errors"
)

// CreateStore inserts a store. The slug must be unique.
func (db *DB) CreateStore(ctx context.Context, name, slug string) (*catalog.Store, error) {
	now := time.Now()
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO stores (name, slug, created_at) VALUES (?, ?, ?)`,
		name, slug, now.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("store slug %q: %w", slug, domerrors.ErrDuplicate)
		}
		return nil, fmt.Errorf("create store: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	return &catalog.Store{ID: id, Name: name, Slug: slug, CreatedAt: unixMilli(now.UnixMilli())}, nil
}

// FindStore returns the store with id, nil, nil when absent.
func (db *DB) FindStore(ctx context.Context, id int64) (*catalog.Store, error) {
	var (
		s         catalog.Store
		createdAt int64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at FROM stores WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Slug, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	s.CreatedAt = unixMilli(createdAt)
	return &s, nil
}

// CreateOperator registers an operator of an existing store. Phone and LINE
// user id are optional but unique when present.
func (db *DB) CreateOperator(ctx context.Context, op *catalog.Operator) (*catalog.Operator, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO operators (store_id, name, phone, line_user_id, language, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		op.StoreID, op.Name, nullString(NormalizePhone(op.Phone)), nullString(op.LineUserID), op.Language, time.Now().UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("operator address already registered: %w", domerrors.ErrDuplicate)
		}
		return nil, fmt.Errorf("create operator: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create operator: %w", err)
	}

	out := *op
	out.ID = id
	out.Phone = NormalizePhone(op.Phone)
	slog.InfoContext(ctx, "operator registered",
		"operator_id", id,
		"store_id", op.StoreID)
	return &out, nil
}

// FindOperator returns the operator with id, nil, nil when absent.
func (db *DB) FindOperator(ctx context.Context, id int64) (*catalog.Operator, error) {
	return db.findOperator(ctx, "id = ?", id)
}

// FindOperatorByPhone resolves a WhatsApp sender. Formatting characters and
// a leading + are ignored.
func (db *DB) FindOperatorByPhone(ctx context.Context, phone string) (*catalog.Operator, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return nil, nil
	}
	return db.findOperator(ctx, "phone = ?", normalized)
}

// FindOperatorByLineUser resolves a LINE sender.
func (db *DB) FindOperatorByLineUser(ctx context.Context, lineUserID string) (*catalog.Operator, error) {
	if lineUserID == "" {
		return nil, nil
	}
	return db.findOperator(ctx, "line_user_id = ?", lineUserID)
}

func (db *DB) findOperator(ctx context.Context, where string, arg any) (*catalog.Operator, error) {
	query := `SELECT id, store_id, name, IFNULL(phone, ''), IFNULL(line_user_id, ''), language
		FROM operators WHERE ` + where

	var op catalog.Operator
	err := db.conn.QueryRowContext(ctx, query, arg).Scan(
		&op.ID,
		&op.StoreID,
		&op.Name,
		&op.Phone,
		&op.LineUserID,
		&op.Language,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query operator",
			"error", err)
		return nil, fmt.Errorf("query operator: %w", err)
	}
	return &op, nil
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
