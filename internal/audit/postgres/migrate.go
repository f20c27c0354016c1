package postgres

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rakunlabs/muz"
)

//go:embed migrations/*
var migrationFS embed.FS

// Migrate runs the embedded SQL migrations against pool, recording applied
// versions in a "<tablePrefix>migrations" bookkeeping table. Grounded on the
// teacher's internal/store/postgres/migrate.go, which drives the same muz
// runner off a pgx pool instead of database/sql.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tablePrefix string) error {
	m := muz.Migrate{
		Path:      "migrations",
		FS:        migrationFS,
		Extension: ".sql",
		Values: map[string]string{
			"TABLE_PREFIX": tablePrefix,
		},
	}

	driver := muz.NewPostgresDriver(pool, tablePrefix+"migrations", slog.Default())

	if err := m.Migrate(ctx, driver); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
