package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Migrate applies every pending embedded migration for the given dialect.
// It uses goose.NewProvider so statement blocks are parsed per file.
func Migrate(ctx context.Context, sqlDB *sql.DB, dialect goose.Dialect, logger *slog.Logger) error {
	if sqlDB == nil {
		return fmt.Errorf("migrate: sql db is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var dir string
	switch dialect {
	case goose.DialectPostgres:
		dir = "migrations/postgres"
	case goose.DialectSQLite3:
		dir = "migrations/sqlite"
	default:
		return fmt.Errorf("migrate: unsupported dialect %q", dialect)
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return fmt.Errorf("migrate: sub fs: %w", err)
	}
	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("migrate: goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate: goose up: %w", err)
	}
	for _, result := range results {
		logger.Info("migration applied",
			"event", "migration_applied",
			"module", "internal/platform/db",
			"layer", "platform",
			"dialect", string(dialect),
			"version", result.Source.Version,
			"duration_ms", result.Duration.Milliseconds(),
		)
	}
	return nil
}
