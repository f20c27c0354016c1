package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rakunlabs/mockllm/internal/audit"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "audit.db")
	s, err := New(context.Background(), Config{Datasource: dsn})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestStore_RecordAndListReloadHistory_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.RecordReload(base, true, nil)
	s.RecordReload(base.Add(time.Minute), false, []string{"model foo: missing file"})

	got, err := s.ListReloadHistory(ctx, 0)
	if err != nil {
		t.Fatalf("ListReloadHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 entries, got %d", len(got))
	}
	if got[0].Reloaded {
		t.Fatalf("newest entry should be the failed reload")
	}
	if len(got[0].Errors) != 1 || got[0].Errors[0] != "model foo: missing file" {
		t.Fatalf("unexpected errors: %+v", got[0].Errors)
	}
}

func TestStore_ListReloadHistory_RespectsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.RecordReload(base.Add(time.Duration(i)*time.Minute), true, nil)
	}

	got, err := s.ListReloadHistory(ctx, 3)
	if err != nil {
		t.Fatalf("ListReloadHistory: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 entries, got %d", len(got))
	}
}

func TestStore_RecordAndListInteractiveHistory_RoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	queued := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	resolved := queued.Add(30 * time.Second)
	entry := audit.InteractiveEntry{
		RequestID:  "req-1",
		Model:      "mock-gpt",
		QueuedAt:   queued,
		ResolvedAt: resolved,
		Outcome:    audit.OutcomeReplied,
		Operator:   "alice",
	}
	if err := s.RecordInteractive(ctx, entry); err != nil {
		t.Fatalf("RecordInteractive: %v", err)
	}

	got, err := s.ListInteractiveHistory(ctx, 0)
	if err != nil {
		t.Fatalf("ListInteractiveHistory: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 entry, got %d", len(got))
	}
	if got[0].RequestID != "req-1" || got[0].Operator != "alice" {
		t.Fatalf("unexpected entry: %+v", got[0])
	}
	if got[0].ID == "" {
		t.Fatalf("want auto-generated id")
	}
	if !got[0].QueuedAt.Equal(queued) {
		t.Fatalf("want queued_at %v, got %v", queued, got[0].QueuedAt)
	}
}
