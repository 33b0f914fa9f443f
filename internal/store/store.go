// Package store persists named dashboard snapshots in SQLite through
// database/sql. A snapshot is an opaque JSON payload produced by the
// dashboard session; the store never inspects it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no dashboard with the requested name exists.
var ErrNotFound = errors.New("dashboard not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS dashboards (
	name     TEXT PRIMARY KEY,
	payload  BLOB NOT NULL,
	saved_at TEXT NOT NULL
);`

// Store is a SQLite-backed dashboard snapshot store.
type Store struct {
	db *sql.DB
}

// Entry describes one saved dashboard without its payload.
type Entry struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"savedAt"`
}

// Open opens the store at the given DSN, creating the schema if needed, and
// returns the Store plus a close function for cleanup.
//
// The DSN is passed straight to database/sql, for example:
//
//	"file:vizboard.db?cache=shared"
//	":memory:"
func Open(ctx context.Context, dsn string) (*Store, func(), error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, nil, fmt.Errorf("store: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("store: open: %w", err)
	}
	// SQLite serializes writers anyway, and a single connection keeps
	// :memory: databases from splitting per connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("store: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("store: create schema: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Store{db: db}, closeFn, nil
}

// Save upserts a dashboard payload under the given name.
func (s *Store) Save(ctx context.Context, name string, payload []byte) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("store: save: name must not be empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO dashboards (name, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		name, payload, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: save %q: %w", name, err)
	}
	return nil
}

// Load returns the payload saved under name, or ErrNotFound.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM dashboards WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: load %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: load %q: %w", name, err)
	}
	return payload, nil
}

// List returns every saved dashboard, most recently saved first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, saved_at FROM dashboards ORDER BY saved_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		var savedAt string
		if err := rows.Scan(&entry.Name, &savedAt); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		entry.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return out, nil
}

// Delete removes a saved dashboard. Deleting an unknown name returns
// ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dashboards WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("store: delete %q: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("store: delete %q: %w", name, ErrNotFound)
	}
	return nil
}
