// Package sqlite is the SQLite-backed audit.Store, grounded directly on the
// teacher's internal/store/sqlite3/sqlite3.go: same goqu.Database +
// database/sql shape, same modernc.org/sqlite driver, same table_prefix
// convention and WAL/foreign-keys pragmas, same muz migration runner.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rakunlabs/mockllm/internal/audit"
)

const DefaultTablePrefix = "mockllm_"

type Store struct {
	db   *sql.DB
	goqu *goqu.Database

	tableReloads      exp.IdentifierExpression
	tableInteractives exp.IdentifierExpression
}

// Config mirrors the teacher's config.StoreSQLite shape.
type Config struct {
	Datasource  string
	TablePrefix string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Datasource == "" {
		return nil, fmt.Errorf("audit sqlite: datasource is required")
	}

	tablePrefix := cfg.TablePrefix
	if tablePrefix == "" {
		tablePrefix = DefaultTablePrefix
	}

	if err := Migrate(ctx, cfg.Datasource, tablePrefix); err != nil {
		return nil, fmt.Errorf("migrate audit sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Datasource)
	if err != nil {
		return nil, fmt.Errorf("open sqlite connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	slog.Info("connected to audit store sqlite")

	return &Store{
		db:                db,
		goqu:              goqu.New("sqlite3", db),
		tableReloads:      goqu.T(tablePrefix + "reload_history"),
		tableInteractives: goqu.T(tablePrefix + "interactive_history"),
	}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			slog.Error("close audit store sqlite connection", "error", err)
		}
	}
}

func (s *Store) RecordReload(at time.Time, reloaded bool, errs []string) {
	errsJSON, _ := json.Marshal(errs)
	query, _, err := s.goqu.Insert(s.tableReloads).Rows(goqu.Record{
		"id":       ulid.Make().String(),
		"at":       at.UTC().Format(time.RFC3339),
		"reloaded": reloaded,
		"errors":   string(errsJSON),
	}).ToSQL()
	if err != nil {
		slog.Error("audit: build reload insert", "error", err)
		return
	}
	if _, err := s.db.ExecContext(context.Background(), query); err != nil {
		slog.Error("audit: record reload", "error", err)
	}
}

func (s *Store) RecordInteractive(ctx context.Context, e audit.InteractiveEntry) error {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	query, _, err := s.goqu.Insert(s.tableInteractives).Rows(goqu.Record{
		"id":          e.ID,
		"request_id":  e.RequestID,
		"model":       e.Model,
		"queued_at":   e.QueuedAt.UTC().Format(time.RFC3339),
		"resolved_at": e.ResolvedAt.UTC().Format(time.RFC3339),
		"outcome":     string(e.Outcome),
		"operator":    e.Operator,
	}).ToSQL()
	if err != nil {
		return fmt.Errorf("build interactive insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("record interactive: %w", err)
	}
	return nil
}

func (s *Store) ListReloadHistory(ctx context.Context, limit int) ([]audit.ReloadEntry, error) {
	q := s.goqu.From(s.tableReloads).Select("id", "at", "reloaded", "errors").Order(goqu.I("at").Desc())
	if limit > 0 {
		q = q.Limit(uint(limit))
	}
	query, _, err := q.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build reload list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reload history: %w", err)
	}
	defer rows.Close()

	var out []audit.ReloadEntry
	for rows.Next() {
		var id, atStr, errsJSON string
		var reloaded bool
		if err := rows.Scan(&id, &atStr, &reloaded, &errsJSON); err != nil {
			return nil, fmt.Errorf("scan reload row: %w", err)
		}
		at, _ := time.Parse(time.RFC3339, atStr)
		var errs []string
		_ = json.Unmarshal([]byte(errsJSON), &errs)
		out = append(out, audit.ReloadEntry{ID: id, At: at, Reloaded: reloaded, Errors: errs})
	}
	return out, rows.Err()
}

func (s *Store) ListInteractiveHistory(ctx context.Context, limit int) ([]audit.InteractiveEntry, error) {
	q := s.goqu.From(s.tableInteractives).
		Select("id", "request_id", "model", "queued_at", "resolved_at", "outcome", "operator").
		Order(goqu.I("queued_at").Desc())
	if limit > 0 {
		q = q.Limit(uint(limit))
	}
	query, _, err := q.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build interactive list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list interactive history: %w", err)
	}
	defer rows.Close()

	var out []audit.InteractiveEntry
	for rows.Next() {
		var id, requestID, model, queuedAt, resolvedAt, outcome, operator string
		if err := rows.Scan(&id, &requestID, &model, &queuedAt, &resolvedAt, &outcome, &operator); err != nil {
			return nil, fmt.Errorf("scan interactive row: %w", err)
		}
		qa, _ := time.Parse(time.RFC3339, queuedAt)
		ra, _ := time.Parse(time.RFC3339, resolvedAt)
		out = append(out, audit.InteractiveEntry{
			ID: id, RequestID: requestID, Model: model,
			QueuedAt: qa, ResolvedAt: ra,
			Outcome: audit.InteractiveOutcome(outcome), Operator: operator,
		})
	}
	return out, rows.Err()
}
