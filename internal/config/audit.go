package config

import (
	"context"
	"fmt"

	"github.com/rakunlabs/mockllm/internal/audit"
	auditpostgres "github.com/rakunlabs/mockllm/internal/audit/postgres"
	auditsqlite "github.com/rakunlabs/mockllm/internal/audit/sqlite"
)

// BuildAuditStore selects the configured backend, preferring Postgres over
// SQLite when both are set, and falling back to an in-memory store when
// neither is configured.
func (s Store) BuildAuditStore(ctx context.Context) (audit.Store, error) {
	if s.Postgres != nil {
		cfg := auditpostgres.Config{DSN: s.Postgres.DSN}
		if s.Postgres.TablePrefix != nil {
			cfg.TablePrefix = *s.Postgres.TablePrefix
		}
		store, err := auditpostgres.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("build postgres audit store: %w", err)
		}
		return store, nil
	}

	if s.SQLite != nil {
		cfg := auditsqlite.Config{Datasource: s.SQLite.Datasource}
		if s.SQLite.TablePrefix != nil {
			cfg.TablePrefix = *s.SQLite.TablePrefix
		}
		store, err := auditsqlite.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("build sqlite audit store: %w", err)
		}
		return store, nil
	}

	return audit.NewMemory(), nil
}
