package store

import (
	"context"
	"sync"
)

// Memory keeps snapshots in a map. Used by tests and single-process
// deployments that accept losing rooms on restart.
type Memory struct {
	mu    sync.RWMutex
	rooms map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rooms: make(map[string][]byte)}
}

func (m *Memory) Save(_ context.Context, roomID string, snapshot []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[roomID] = append([]byte(nil), snapshot...)
	return nil
}

func (m *Memory) Load(_ context.Context, roomID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot, ok := m.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), snapshot...), nil
}

func (m *Memory) Delete(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	return nil
}

func (m *Memory) ListActive(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Memory) Close() error { return nil }
