package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Memory is an in-memory Store: data does not survive process restarts,
// grounded directly on the teacher's internal/store/memory/memory.go
// (a mutex-guarded slice per entity, ulid-generated ids, append-only lists
// kept in insertion order rather than the CRUD-with-update shape the
// teacher's provider/workflow tables need, since history rows are never
// edited after the fact).
type Memory struct {
	mu           sync.Mutex
	reloads      []ReloadEntry
	interactives []InteractiveEntry
}

func NewMemory() *Memory {
	slog.Info("using in-memory audit store (history will not persist across restarts)")
	return &Memory{}
}

func (m *Memory) RecordReload(at time.Time, reloaded bool, errs []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloads = append(m.reloads, ReloadEntry{
		ID:       ulid.Make().String(),
		At:       at,
		Reloaded: reloaded,
		Errors:   errs,
	})
}

func (m *Memory) RecordInteractive(_ context.Context, e InteractiveEntry) error {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactives = append(m.interactives, e)
	return nil
}

func (m *Memory) ListReloadHistory(_ context.Context, limit int) ([]ReloadEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lastN(m.reloads, limit), nil
}

func (m *Memory) ListInteractiveHistory(_ context.Context, limit int) ([]InteractiveEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lastN(m.interactives, limit), nil
}

func (m *Memory) Close() {}

// lastN returns the most recent up-to-limit entries, newest first. limit<=0
// means unbounded.
func lastN[T any](entries []T, limit int) []T {
	n := len(entries)
	start := 0
	if limit > 0 && limit < n {
		start = n - limit
	}
	out := make([]T, 0, n-start)
	for i := n - 1; i >= start; i-- {
		out = append(out, entries[i])
	}
	return out
}
