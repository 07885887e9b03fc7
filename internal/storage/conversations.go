package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/garyellow/storebot/internal/conversation"
	domerrors "github.com/garyellow/storebot/internal/errors"
)

// LoadConversation returns the record of identity, nil, nil when absent.
func (db *DB) LoadConversation(ctx context.Context, identity string) (*conversation.Record, error) {
	query := `SELECT identity, current_state, context, version, created_at, updated_at
		FROM conversations WHERE identity = ?`

	var (
		rec                  conversation.Record
		state, rawContext    string
		createdAt, updatedAt int64
	)
	err := db.conn.QueryRowContext(ctx, query, identity).Scan(
		&rec.Identity,
		&state,
		&rawContext,
		&rec.Version,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query conversation",
			"identity", identity,
			"error", err)
		return nil, fmt.Errorf("query conversation: %w", err)
	}

	if err := json.Unmarshal([]byte(rawContext), &rec.Context); err != nil {
		return nil, fmt.Errorf("decode conversation context: %w", err)
	}
	rec.State = conversation.State(state)
	rec.CreatedAt = unixMilli(createdAt)
	rec.UpdatedAt = unixMilli(updatedAt)
	return &rec, nil
}

// CreateConversation inserts the initial record of identity (state welcome,
// version 1). When a concurrent request created it first, the stored record
// is returned instead.
func (db *DB) CreateConversation(ctx context.Context, identity string, c conversation.Context) (*conversation.Record, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode conversation context: %w", err)
	}

	now := time.Now().UnixMilli()
	query := `INSERT OR IGNORE INTO conversations (identity, current_state, context, version, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)`
	if _, err := db.conn.ExecContext(ctx, query, identity, string(conversation.StateWelcome), string(raw), now, now); err != nil {
		slog.ErrorContext(ctx, "failed to create conversation",
			"identity", identity,
			"error", err)
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	rec, err := db.LoadConversation(ctx, identity)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("create conversation %s: %w", identity, domerrors.ErrNotFound)
	}
	return rec, nil
}

// SaveConversation writes rec if the stored version still equals rec.Version.
// On success rec.Version is incremented and UpdatedAt refreshed; otherwise
// errors.ErrConflict is returned and rec is left untouched.
func (db *DB) SaveConversation(ctx context.Context, rec *conversation.Record) error {
	raw, err := json.Marshal(rec.Context)
	if err != nil {
		return fmt.Errorf("encode conversation context: %w", err)
	}

	start := time.Now()
	now := start.UnixMilli()
	query := `UPDATE conversations
		SET current_state = ?, context = ?, version = version + 1, updated_at = ?
		WHERE identity = ? AND version = ?`
	res, err := db.conn.ExecContext(ctx, query, string(rec.State), string(raw), now, rec.Identity, rec.Version)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save conversation",
			"identity", rec.Identity,
			"error", err)
		return fmt.Errorf("save conversation: %w", err)
	}
	warnIfSlow(ctx, "SaveConversation", start, "identity", rec.Identity)

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("save conversation %s at version %d: %w", rec.Identity, rec.Version, domerrors.ErrConflict)
	}

	rec.Version++
	rec.UpdatedAt = unixMilli(now)
	return nil
}

// CountConversations returns the number of stored conversation records.
func (db *DB) CountConversations(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return count, nil
}
