// Package sqlite implements the account repository on SQLite.
//
// modernc.org/sqlite is a pure Go translation of SQLite — no CGo, so the
// binary cross-compiles cleanly. The driver registers itself with
// database/sql under the name "sqlite" via the blank import.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path surfaces here rather
	// than on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight — each RPC
	// is an independent unit of work hitting this pool.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Call it on shutdown to flush the WAL
// and release the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the accounts table. google_id and reset_token are
// nullable so their UNIQUE indexes only constrain rows that actually carry
// a value — SQLite treats NULLs as distinct in unique indexes.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id                 TEXT PRIMARY KEY,
			full_name          TEXT NOT NULL,
			email              TEXT NOT NULL UNIQUE,
			password_hash      TEXT NOT NULL DEFAULT '',
			role               TEXT NOT NULL,
			phone              TEXT NOT NULL DEFAULT '',
			address            TEXT NOT NULL DEFAULT '',
			date_of_birth      TEXT NOT NULL DEFAULT '',
			gender             TEXT NOT NULL DEFAULT '',
			age                INTEGER NOT NULL DEFAULT 0,
			blood_group        TEXT NOT NULL DEFAULT '',
			education          TEXT NOT NULL DEFAULT '',
			experience         INTEGER NOT NULL DEFAULT 0,
			license_number     TEXT NOT NULL DEFAULT '',
			consultation_fee   REAL NOT NULL DEFAULT 0,
			bio                TEXT NOT NULL DEFAULT '',
			available_hours    TEXT NOT NULL DEFAULT '',
			profile_picture    TEXT NOT NULL DEFAULT '',
			google_id          TEXT,
			reset_token        TEXT,
			reset_token_expiry DATETIME,
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_google_id
			ON accounts(google_id) WHERE google_id IS NOT NULL;
		CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_reset_token
			ON accounts(reset_token) WHERE reset_token IS NOT NULL;
		CREATE INDEX IF NOT EXISTS idx_accounts_role ON accounts(role);
	`)
	if err != nil {
		return fmt.Errorf("creating accounts table: %w", err)
	}

	return nil
}
