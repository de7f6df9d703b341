package store

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps run records in memory; the default when no Redis URL is
// configured.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]Run)}
}

func (m *MemoryStore) Save(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return run, nil
}

func (m *MemoryStore) Close() error { return nil }

// CleanupOld drops records whose last update is older than maxAge and returns
// how many were removed.
func (m *MemoryStore) CleanupOld(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, run := range m.runs {
		if run.UpdatedAt.Before(cutoff) {
			delete(m.runs, id)
			removed++
		}
	}
	return removed
}
