// Package db opens the SQL backends used for key/value persistence and
// creates their schema.
package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL flavour behind a *sql.DB.
type Dialect string

const (
	// Postgres is served by github.com/lib/pq.
	Postgres Dialect = "postgres"
	// SQLite is served by modernc.org/sqlite.
	SQLite Dialect = "sqlite"
	// Memory means no SQL backend; callers use the in-memory repository.
	Memory Dialect = "memory"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
    area TEXT NOT NULL,
    key TEXT NOT NULL,
    value BYTEA NOT NULL,
    updated_at BIGINT NOT NULL,
    PRIMARY KEY (area, key)
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv_entries (
    area TEXT NOT NULL,
    key TEXT NOT NULL,
    value BLOB NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (area, key)
);
`

// InitPostgres connects to PostgreSQL and creates the schema.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := CreateSchema(db, Postgres); err != nil {
		return nil, err
	}

	return db, nil
}

// InitSQLite opens (or creates) the SQLite file at path and creates the schema.
func InitSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite: empty path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single writer keeps the file consistent without busy retries
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", pragma, err)
		}
	}

	if err := CreateSchema(db, SQLite); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// CreateSchema creates the kv_entries table for the given dialect.
func CreateSchema(db *sql.DB, dialect Dialect) error {
	schema := sqliteSchema
	if dialect == Postgres {
		schema = postgresSchema
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Open selects a backend from dsn. "memory" (or an empty dsn) returns a nil
// *sql.DB with the Memory dialect; "sqlite://<path>" opens SQLite; anything
// else is handed to PostgreSQL.
func Open(dsn string) (*sql.DB, Dialect, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return nil, Memory, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		db, err := InitSQLite(strings.TrimPrefix(dsn, "sqlite://"))
		return db, SQLite, err
	default:
		db, err := InitPostgres(dsn)
		return db, Postgres, err
	}
}
