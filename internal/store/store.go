// Package store persists room snapshots. The store is the source of truth
// across process restarts: on boot every listed room is reconstituted into
// a live actor. Each room is a single key whose value is the JSON snapshot;
// the only write primitive is an atomic whole-value replace.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Load for rooms that were never saved or have
// been deleted.
var ErrNotFound = errors.New("room not found")

// Store is the snapshot persistence contract.
type Store interface {
	// Save atomically replaces the snapshot for a room.
	Save(ctx context.Context, roomID string, snapshot []byte) error
	// Load returns the latest saved snapshot, or ErrNotFound.
	Load(ctx context.Context, roomID string) ([]byte, error)
	// Delete removes a room. Deleting an absent room is not an error.
	Delete(ctx context.Context, roomID string) error
	// ListActive enumerates every persisted room id.
	ListActive(ctx context.Context) ([]string, error)
	// Close releases the backend.
	Close() error
}

// Config selects and parameterizes a backend.
type Config struct {
	Backend string // "memory", "sqlite" or "postgres"
	Path    string // sqlite database path
	DSN     string // postgres connection string
}

// Open builds the configured backend.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		return OpenSQLite(cfg.Path)
	case "postgres":
		return OpenPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
