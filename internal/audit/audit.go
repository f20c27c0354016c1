// Package audit implements the operational-history store of spec.md's
// expanded §4.9: reload outcomes and interactive request lifecycles, never
// conversation content. Backed by SQLite or Postgres (selected exactly as
// the teacher selects its provider store, via config.Store.{SQLite,Postgres}),
// falling back to an in-memory store that does not survive a restart when
// neither is configured.
package audit

import (
	"context"
	"time"
)

// ReloadEntry is one row of reload_history.
type ReloadEntry struct {
	ID       string
	At       time.Time
	Reloaded bool
	Errors   []string
}

// InteractiveOutcome is the terminal state of one interactive request.
type InteractiveOutcome string

const (
	OutcomeReplied      InteractiveOutcome = "replied"
	OutcomeTimeout      InteractiveOutcome = "timeout"
	OutcomeDisconnected InteractiveOutcome = "disconnected"
)

// InteractiveEntry is one row of interactive_history.
type InteractiveEntry struct {
	ID         string
	RequestID  string
	Model      string
	QueuedAt   time.Time
	ResolvedAt time.Time
	Outcome    InteractiveOutcome
	Operator   string
}

// Store is the audit history persistence boundary. RecordReload satisfies
// internal/reload.HistorySink.
type Store interface {
	RecordReload(at time.Time, reloaded bool, errs []string)
	RecordInteractive(ctx context.Context, e InteractiveEntry) error
	ListReloadHistory(ctx context.Context, limit int) ([]ReloadEntry, error)
	ListInteractiveHistory(ctx context.Context, limit int) ([]InteractiveEntry, error)
	Close()
}
