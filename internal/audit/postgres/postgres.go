// Package postgres is the Postgres-backed audit.Store, grounded directly on
// the teacher's internal/store/postgres/postgres.go: same goqu.Database over
// a pgx pool, same table_prefix convention, same muz migration runner, swapped
// here for the two append-only history tables instead of the teacher's
// CRUD-able provider/workflow tables.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/rakunlabs/mockllm/internal/audit"
)

const DefaultTablePrefix = "mockllm_"

type Store struct {
	pool *pgxpool.Pool
	goqu *goqu.Database

	tableReloads      exp.IdentifierExpression
	tableInteractives exp.IdentifierExpression
}

// Config mirrors the teacher's config.StorePostgres shape.
type Config struct {
	DSN         string
	TablePrefix string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("audit postgres: dsn is required")
	}

	tablePrefix := cfg.TablePrefix
	if tablePrefix == "" {
		tablePrefix = DefaultTablePrefix
	}

	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := Migrate(ctx, pool, tablePrefix); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate audit postgres: %w", err)
	}

	slog.Info("connected to audit store postgres")

	return &Store{
		pool:              pool,
		goqu:              goqu.New("postgres", nil),
		tableReloads:      goqu.T(tablePrefix + "reload_history"),
		tableInteractives: goqu.T(tablePrefix + "interactive_history"),
	}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) RecordReload(at time.Time, reloaded bool, errs []string) {
	errsJSON, _ := json.Marshal(errs)
	query, args, err := s.goqu.Insert(s.tableReloads).Rows(goqu.Record{
		"id":       ulid.Make().String(),
		"at":       at.UTC(),
		"reloaded": reloaded,
		"errors":   string(errsJSON),
	}).ToSQL()
	if err != nil {
		slog.Error("audit: build reload insert", "error", err)
		return
	}
	if _, err := s.pool.Exec(context.Background(), query, args...); err != nil {
		slog.Error("audit: record reload", "error", err)
	}
}

func (s *Store) RecordInteractive(ctx context.Context, e audit.InteractiveEntry) error {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	query, args, err := s.goqu.Insert(s.tableInteractives).Rows(goqu.Record{
		"id":          e.ID,
		"request_id":  e.RequestID,
		"model":       e.Model,
		"queued_at":   e.QueuedAt.UTC(),
		"resolved_at": e.ResolvedAt.UTC(),
		"outcome":     string(e.Outcome),
		"operator":    e.Operator,
	}).ToSQL()
	if err != nil {
		return fmt.Errorf("build interactive insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("record interactive: %w", err)
	}
	return nil
}

func (s *Store) ListReloadHistory(ctx context.Context, limit int) ([]audit.ReloadEntry, error) {
	q := s.goqu.From(s.tableReloads).Select("id", "at", "reloaded", "errors").Order(goqu.I("at").Desc())
	if limit > 0 {
		q = q.Limit(uint(limit))
	}
	query, args, err := q.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build reload list query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reload history: %w", err)
	}
	defer rows.Close()

	var out []audit.ReloadEntry
	for rows.Next() {
		var id, errsJSON string
		var at time.Time
		var reloaded bool
		if err := rows.Scan(&id, &at, &reloaded, &errsJSON); err != nil {
			return nil, fmt.Errorf("scan reload row: %w", err)
		}
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
	query, args, err := q.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build interactive list query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list interactive history: %w", err)
	}
	defer rows.Close()

	var out []audit.InteractiveEntry
	for rows.Next() {
		var id, requestID, model, outcome, operator string
		var queuedAt, resolvedAt time.Time
		if err := rows.Scan(&id, &requestID, &model, &queuedAt, &resolvedAt, &outcome, &operator); err != nil {
			return nil, fmt.Errorf("scan interactive row: %w", err)
		}
		out = append(out, audit.InteractiveEntry{
			ID: id, RequestID: requestID, Model: model,
			QueuedAt: queuedAt, ResolvedAt: resolvedAt,
			Outcome: audit.InteractiveOutcome(outcome), Operator: operator,
		})
	}
	return out, rows.Err()
}
