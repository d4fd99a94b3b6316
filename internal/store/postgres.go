package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"
)

// Postgres persists snapshots in a shared database, for deployments where
// several processes take turns owning the room set.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects with the given DSN and ensures the schema.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS rooms (
    id         TEXT PRIMARY KEY,
    snapshot   BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Postgres{db: db}, nil
}

func (p *Postgres) Save(ctx context.Context, roomID string, snapshot []byte) error {
	_, err := p.db.ExecContext(ctx, `
INSERT INTO rooms (id, snapshot, updated_at) VALUES ($1, $2, now())
ON CONFLICT (id) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at`,
		roomID, snapshot)
	return err
}

func (p *Postgres) Load(ctx context.Context, roomID string) ([]byte, error) {
	var snapshot []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT snapshot FROM rooms WHERE id = $1`, roomID).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (p *Postgres) Delete(ctx context.Context, roomID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	return err
}

func (p *Postgres) ListActive(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id FROM rooms ORDER BY updated_at`)
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

func (p *Postgres) Close() error { return p.db.Close() }
