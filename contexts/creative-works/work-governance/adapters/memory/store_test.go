package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/contexts/creative-works/work-governance/adapters/storetest"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
	"atelier/contexts/creative-works/work-governance/ports"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) storetest.Store { return NewStore(nil) })
}

func TestStoreTransferLedger(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	store.FailTransfersTo("bob", errors.New("frozen"))

	require.NoError(t, store.Transfer(ctx, ports.TransferRequest{TransferID: "t1", RecipientID: "alice", Amount: 5}))
	err := store.Transfer(ctx, ports.TransferRequest{TransferID: "t2", RecipientID: "bob", Amount: 5})
	assert.ErrorIs(t, err, domainerrors.ErrTransferFailed)
	assert.Contains(t, err.Error(), "frozen")

	transfers := store.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, "alice", transfers[0].RecipientID)
}

func TestStoreRollbackRestoresOutbox(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	err := store.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, store.AppendOutbox(ctx, ports.EventEnvelope{EventID: "evt-1", EventType: "work.created"}))
		return errors.New("abort")
	})
	require.Error(t, err)
	assert.Empty(t, store.OutboxEvents())
}

func TestStoreClockAndIDs(t *testing.T) {
	store := NewStore(nil)
	pinned := time.Date(2030, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	store.SetNow(func() time.Time { return pinned })
	assert.Equal(t, pinned.UTC(), store.Now())
	assert.Equal(t, time.UTC, store.Now().Location())

	store.SetNow(nil)
	assert.WithinDuration(t, time.Now(), store.Now(), time.Second)

	first, err := store.NewID(context.Background())
	require.NoError(t, err)
	second, err := store.NewID(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
