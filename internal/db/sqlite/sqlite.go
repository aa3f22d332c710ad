// Package sqlite opens the embedded SQLite passage store.
//
// The default build uses modernc.org/sqlite. Building with the cgo_sqlite
// tag switches to github.com/mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kailas-cloud/ragctx/internal/db"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB is a SQLite handle.
type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the database at path.
func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}

	conn, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("open %s: %w", path, err)}
	}
	// Single connection: one writer, and :memory: databases are per-connection.
	conn.SetMaxOpenConns(1)

	if path != MemoryPath {
		if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = conn.Close()
			return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("enable WAL: %w", err)}
		}
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("ping %s: %w", path, err)}
	}

	return &DB{DB: conn, path: path}, nil
}

// Ping checks the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Path returns the database location.
func (d *DB) Path() string { return d.path }
