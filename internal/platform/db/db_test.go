package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_RequiresPath(t *testing.T) {
	t.Parallel()

	_, err := OpenSQLite(context.Background(), "  ")
	require.Error(t, err)
}

func TestMigrate_SQLiteInMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sqlDB, err := OpenSQLite(ctx, MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(ctx, sqlDB, goose.DialectSQLite3, nil))
	// Second run is a no-op.
	require.NoError(t, Migrate(ctx, sqlDB, goose.DialectSQLite3, nil))

	for _, table := range []string{
		"work_governance_authors",
		"work_governance_works",
		"work_governance_idempotency",
		"work_governance_outbox",
	} {
		var name string
		err := sqlDB.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_SQLiteFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "atelier.db")

	sqlDB, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, sqlDB, goose.DialectSQLite3, nil))
	require.NoError(t, sqlDB.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestMigrate_RejectsUnknownDialect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sqlDB, err := OpenSQLite(ctx, MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = Migrate(ctx, sqlDB, goose.DialectMySQL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported dialect")
}

func TestConnect_RequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := Connect(context.Background(), "", 0)
	require.Error(t, err)
}
