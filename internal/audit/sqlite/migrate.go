package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/rakunlabs/muz"
)

//go:embed migrations/*
var migrationFS embed.FS

// Migrate runs the embedded SQL migrations against datasource, recording
// applied versions in a "<tablePrefix>migrations" bookkeeping table.
// {{TABLE_PREFIX}} placeholders in the migration files are substituted with
// tablePrefix, mirroring the teacher's internal/store/sqlite3/migrate.go.
func Migrate(ctx context.Context, datasource, tablePrefix string) error {
	db, err := sql.Open("sqlite", datasource)
	if err != nil {
		return fmt.Errorf("open sqlite connection for migration: %w", err)
	}
	defer db.Close()

	m := muz.Migrate{
		Path:      "migrations",
		FS:        migrationFS,
		Extension: ".sql",
		Values: map[string]string{
			"TABLE_PREFIX": tablePrefix,
		},
	}

	driver := muz.NewSQLiteDriver(db, tablePrefix+"migrations", slog.Default())

	if err := m.Migrate(ctx, driver); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
