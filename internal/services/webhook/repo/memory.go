package repo

import (
	"context"
	"sync"

	perr "stackscout/internal/platform/errors"
	ptime "stackscout/internal/platform/time"
	catalog "stackscout/internal/services/catalog/domain"
	"stackscout/internal/services/webhook/domain"
)

// Memory is an in-process snapshot store with the same apply rule as PGStore
type Memory struct {
	mu        sync.Mutex
	apps      map[string]catalog.App
	snapshots []domain.Snapshot
}

var _ domain.SnapshotStore = (*Memory)(nil)

// NewMemory seeds the store with catalog entries
func NewMemory(apps ...catalog.App) *Memory {
	m := &Memory{apps: map[string]catalog.App{}}
	for _, a := range apps {
		m.apps[a.ID] = a
	}
	return m
}

// Apply records s and moves every matching entry whose capture is unset or older
func (m *Memory) Apply(_ context.Context, s domain.Snapshot) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cur := range m.snapshots {
		if cur.ID == s.ID {
			return 0, perr.DuplicateKeyf("snapshot %s exists", s.ID)
		}
	}
	m.snapshots = append(m.snapshots, s)

	n := 0
	for id, a := range m.apps {
		if !a.MatchesRepo(s.RepositoryFullName) {
			continue
		}
		if a.SnapshotCapturedAt != nil && !a.SnapshotCapturedAt.Before(s.CapturedAt) {
			continue
		}
		a.SnapshotID = s.ID
		a.SnapshotCapturedAt = ptime.Ptr(s.CapturedAt)
		m.apps[id] = a
		n++
	}
	return n, nil
}

// App returns a catalog entry as currently recorded
func (m *Memory) App(id string) (catalog.App, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.apps[id]
	return a, ok
}

// Snapshots returns every stored snapshot in arrival order
func (m *Memory) Snapshots() []domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Snapshot(nil), m.snapshots...)
}
