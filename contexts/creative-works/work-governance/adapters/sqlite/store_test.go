package sqliteadapter

import (
	"context"
	"testing"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/contexts/creative-works/work-governance/adapters/storetest"
	"atelier/contexts/creative-works/work-governance/ports"
	contractsv1 "atelier/contracts/gen/events/v1"
	"atelier/internal/platform/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := db.OpenSQLite(ctx, db.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(ctx, sqlDB, goose.DialectSQLite3, nil))

	return NewStore(sqlDB, nil)
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store { return newTestStore(t) })
}

func TestStoreTransferQueuesOutboxEvent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	requestedAt := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Transfer(ctx, ports.TransferRequest{
		TransferID:  "tr-1",
		WorkID:      "w1",
		RecipientID: "bob",
		Amount:      42,
		Reason:      "access",
		RequestedAt: requestedAt,
	}))

	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "tr-1", pending[0].OutboxID)
	assert.Equal(t, contractsv1.EventFundsTransferRequested, pending[0].EventType)
	assert.Equal(t, "bob", pending[0].PartitionKey)
	assert.True(t, requestedAt.Equal(pending[0].CreatedAt))
	assert.Contains(t, string(pending[0].Payload), `"amount":42`)
}

func TestStoreTransferRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	request := ports.TransferRequest{TransferID: "tr-1", RecipientID: "bob", Amount: 1, RequestedAt: time.Now()}

	require.NoError(t, store.Transfer(ctx, request))
	require.Error(t, store.Transfer(ctx, request))
}
