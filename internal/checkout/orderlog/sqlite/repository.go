// Package sqlite is the SQLite-backed orderlog.Repository. It shares the
// database file with the cart key-value store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcmexdev/storefront-cart/internal/checkout/orderlog"
)

// schema is append-only: each row is one transition of one checkout.
const schema = `
CREATE TABLE IF NOT EXISTS order_logs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id        TEXT        NOT NULL,
    status          TEXT        NOT NULL,
    step            TEXT        NOT NULL DEFAULT '',
    -- Formatted order message; only set on SUBMITTING rows.
    payload         TEXT,
    error_messages  TEXT        NOT NULL DEFAULT '[]',
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',
    updated_at      TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_logs_order_id ON order_logs(order_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_order_logs_trace_id ON order_logs(trace_id);
`

type Repository struct {
	db *sql.DB
}

// New applies the schema on db and returns the repository. The caller owns db.
func New(db *sql.DB) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("sqlite: apply order log schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// Save inserts a new entry. It is safe to call concurrently.
func (r *Repository) Save(ctx context.Context, entry *orderlog.Entry) error {
	const q = `
		INSERT INTO order_logs
			(order_id, status, step, payload, error_messages, trace_id, span_id, updated_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, q,
		entry.OrderID,
		string(entry.Status),
		entry.Step,
		nullableString(entry.Payload),
		entry.ErrorMessages,
		entry.TraceID,
		entry.SpanID,
		formatTime(entry.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save order log for %q: %w", entry.OrderID, err)
	}
	return nil
}

// GetLatest returns the most recent entry for orderID.
func (r *Repository) GetLatest(ctx context.Context, orderID string) (*orderlog.Entry, error) {
	const q = `
		SELECT order_id, status, step, COALESCE(payload,''), error_messages,
		       trace_id, span_id, updated_at
		FROM   order_logs
		WHERE  order_id = ?
		ORDER  BY updated_at DESC, id DESC
		LIMIT  1`

	var entry orderlog.Entry
	var updatedAt string
	err := r.db.QueryRowContext(ctx, q, orderID).Scan(
		&entry.OrderID,
		&entry.Status,
		&entry.Step,
		&entry.Payload,
		&entry.ErrorMessages,
		&entry.TraceID,
		&entry.SpanID,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", orderlog.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get latest for %q: %w", orderID, err)
	}

	entry.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// nullableString stores NULL instead of an empty payload.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
