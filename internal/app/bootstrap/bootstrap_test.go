package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httptransport "atelier/contexts/creative-works/work-governance/transport/http"
	"atelier/internal/platform/config"
	"atelier/internal/platform/httpserver"
)

func testConfig(driver string) config.Config {
	return config.Config{
		Service: config.ServiceConfig{Name: "atelier-test"},
		Storage: config.StorageConfig{Driver: driver, AutoMigrate: true, MaxOpenConns: 1},
		Auth:    config.AuthConfig{Mode: config.AuthModeHeader},
		Governance: config.GovernanceConfig{
			VoteFee:        1,
			IdempotencyTTL: time.Hour,
		},
		Worker: config.WorkerConfig{PollInterval: 10 * time.Millisecond, BatchSize: 10, Topic: "test"},
	}
}

func TestBuildMemory(t *testing.T) {
	app, err := Build(context.Background(), testConfig(config.StorageMemory), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, app.Close()) })

	_, err = app.Module().Handler.CreateAuthorHandler(context.Background(), "alice", httptransport.CreateAuthorRequest{Name: "Alice", Age: 30})
	require.NoError(t, err)

	err = app.RunWorker(context.Background())
	assert.ErrorContains(t, err, "shared storage")
}

func TestBuildSQLiteMigratesAndPersists(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(config.StorageSQLite)
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "atelier.db")

	app, err := Build(ctx, cfg, nil)
	require.NoError(t, err)
	_, err = app.Module().Handler.CreateAuthorHandler(ctx, "alice", httptransport.CreateAuthorRequest{Name: "Alice", Age: 30})
	require.NoError(t, err)
	require.NoError(t, app.Close())

	reopened, err := Build(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	authors, err := reopened.Module().Handler.ListAuthorsHandler(ctx)
	require.NoError(t, err)
	require.Len(t, authors.Items, 1)
	assert.Equal(t, "alice", authors.Items[0].AuthorID)
}

func TestBuildRejectsUnknownDriver(t *testing.T) {
	_, err := Build(context.Background(), testConfig("mongo"), nil)
	require.ErrorContains(t, err, "unsupported storage driver")
}

func TestRunWorkerStopsOnCancel(t *testing.T) {
	cfg := testConfig(config.StorageSQLite)
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "atelier.db")
	app, err := Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, app.RunWorker(ctx))
}

func TestIdentity(t *testing.T) {
	resolver, err := Identity(config.AuthConfig{Mode: config.AuthModeHeader})
	require.NoError(t, err)
	assert.IsType(t, httpserver.HeaderIdentity{}, resolver)

	resolver, err = Identity(config.AuthConfig{Mode: config.AuthModeJWT, JWTSecret: "0123456789abcdef0123456789abcdef", JWTIssuer: "atelier"})
	require.NoError(t, err)
	assert.IsType(t, httpserver.BearerIdentity{}, resolver)

	_, err = Identity(config.AuthConfig{Mode: config.AuthModeJWT})
	require.Error(t, err)

	_, err = Identity(config.AuthConfig{Mode: "oauth"})
	require.Error(t, err)
}

func TestMigrate(t *testing.T) {
	cfg := testConfig(config.StorageSQLite)
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "atelier.db")
	require.NoError(t, Migrate(context.Background(), cfg, nil))
	require.NoError(t, Migrate(context.Background(), cfg, nil))

	require.Error(t, Migrate(context.Background(), testConfig(config.StorageMemory), nil))
}
