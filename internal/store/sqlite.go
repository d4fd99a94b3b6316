package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite persists snapshots in a local database file. The pool is pinned to
// a single connection; modernc's driver serializes writers anyway and one
// connection keeps PRAGMA state consistent.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" {
		parent := filepath.Dir(path)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS rooms (
    id         TEXT PRIMARY KEY,
    snapshot   BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, roomID string, snapshot []byte) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO rooms (id, snapshot, updated_at) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		roomID, snapshot, time.Now().UTC().UnixMilli())
	return err
}

func (s *SQLite) Load(ctx context.Context, roomID string) ([]byte, error) {
	var snapshot []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM rooms WHERE id = ?`, roomID).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *SQLite) Delete(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID)
	return err
}

func (s *SQLite) ListActive(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM rooms ORDER BY updated_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }
