// Package repository provides persistence implementations for the
// area-scoped key/value storage used by the wallet security layer.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/atinyakov/WalletKeeper/internal/db"
	"github.com/atinyakov/WalletKeeper/internal/models"
)

// SQLKVRepository stores key/value entries in the kv_entries table of a
// PostgreSQL or SQLite database.
type SQLKVRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
	// Dialect selects the placeholder style.
	Dialect db.Dialect
}

// NewSQLKVRepository creates a repository over an initialised database.
func NewSQLKVRepository(conn *sql.DB, dialect db.Dialect) *SQLKVRepository {
	return &SQLKVRepository{DB: conn, Dialect: dialect}
}

var placeholder = regexp.MustCompile(`\$\d+`)

// q rewrites $N placeholders for dialects that only understand "?".
func (r *SQLKVRepository) q(query string) string {
	if r.Dialect == db.SQLite {
		return placeholder.ReplaceAllString(query, "?")
	}
	return query
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, models.ErrStorageUnavailable, err)
}

// Keys returns every key stored in area, sorted.
func (r *SQLKVRepository) Keys(ctx context.Context, area models.StorageArea) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, r.q(`SELECT key FROM kv_entries WHERE area = $1 ORDER BY key`), string(area))
	if err != nil {
		return nil, unavailable("list keys", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, unavailable("scan key", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list keys", err)
	}
	return keys, nil
}

// Get returns the value stored under key in area, or models.ErrNotFound.
func (r *SQLKVRepository) Get(ctx context.Context, area models.StorageArea, key string) ([]byte, error) {
	var value []byte
	err := r.DB.QueryRowContext(ctx,
		r.q(`SELECT value FROM kv_entries WHERE area = $1 AND key = $2`),
		string(area), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get", err)
	}
	return value, nil
}

// Put inserts or replaces the value stored under key in area.
func (r *SQLKVRepository) Put(ctx context.Context, area models.StorageArea, key string, value []byte) error {
	_, err := r.DB.ExecContext(ctx, r.q(`
		INSERT INTO kv_entries (area, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (area, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`), string(area), key, value, time.Now().UnixMilli())
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

// Delete removes key from area. Deleting a missing key is not an error.
func (r *SQLKVRepository) Delete(ctx context.Context, area models.StorageArea, key string) error {
	_, err := r.DB.ExecContext(ctx, r.q(`DELETE FROM kv_entries WHERE area = $1 AND key = $2`), string(area), key)
	if err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// Clear removes every entry of area.
func (r *SQLKVRepository) Clear(ctx context.Context, area models.StorageArea) error {
	_, err := r.DB.ExecContext(ctx, r.q(`DELETE FROM kv_entries WHERE area = $1`), string(area))
	if err != nil {
		return unavailable("clear", err)
	}
	return nil
}
