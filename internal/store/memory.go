package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory keeps snapshots in process. Contents are lost on restart.
type Memory struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]Snapshot
	order []uuid.UUID // save order, oldest first
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{byID: make(map[uuid.UUID]Snapshot)}
}

func (m *Memory) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[snap.ID]; !exists {
		m.order = append(m.order, snap.ID)
	}
	m.byID[snap.ID] = snap
	return nil
}

func (m *Memory) Latest(ctx context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.order) == 0 {
		return Snapshot{}, ErrNotFound
	}
	return m.byID[m.order[len(m.order)-1]], nil
}

func (m *Memory) Get(ctx context.Context, id uuid.UUID) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.byID[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

func (m *Memory) List(ctx context.Context, limit int) ([]Summary, error) {
	limit = normalizeLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0, min(limit, len(m.order)))
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.byID[m.order[i]].Summary())
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
