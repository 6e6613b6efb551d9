// Package sqlite implements the repository interfaces on SQLite.
//
// The driver is modernc.org/sqlite, a pure-Go translation of SQLite — no
// CGo, so the binary cross-compiles cleanly. Use ":memory:" as the path for
// throwaway databases in tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements every repository
// interface. The server owns it and closes it on shutdown.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a refresh is writing.
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

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is reachable. Backs the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			github_id  INTEGER NOT NULL UNIQUE,
			login      TEXT NOT NULL,
			name       TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS repos (
			id            TEXT PRIMARY KEY,
			owner         TEXT NOT NULL,
			name          TEXT NOT NULL,
			branch        TEXT NOT NULL DEFAULT 'main',
			manifest_path TEXT NOT NULL,
			user_id       TEXT NOT NULL REFERENCES users(id),
			created_at    DATETIME NOT NULL,
			UNIQUE(owner, name)
		);

		CREATE TABLE IF NOT EXISTS comics (
			id         TEXT PRIMARY KEY,
			repo_id    TEXT NOT NULL REFERENCES repos(id),
			slug       TEXT NOT NULL,
			title      TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'draft',
			manifest   TEXT NOT NULL,
			cached_at  DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(repo_id, slug)
		);
		CREATE INDEX IF NOT EXISTS idx_comics_repo_id ON comics(repo_id);

		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id),
			expires_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS assets (
			key                TEXT PRIMARY KEY,
			owner              TEXT NOT NULL DEFAULT '',
			content_type       TEXT NOT NULL DEFAULT '',
			created_at         DATETIME NOT NULL,
			last_referenced_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}
