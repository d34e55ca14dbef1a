// Package storetest holds the behaviour every work-governance persistence
// adapter must share. Adapter test files call Run with their own factory.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
	"atelier/contexts/creative-works/work-governance/ports"
)

// Store is the full port surface a persistence adapter provides.
type Store interface {
	ports.AuthorRepository
	ports.WorkRepository
	ports.TxManager
	ports.IdempotencyStore
	ports.OutboxWriter
	ports.OutboxRepository
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes the shared suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("authors", func(t *testing.T) { testAuthors(t, newStore(t)) })
	t.Run("works ordering", func(t *testing.T) { testWorkOrdering(t, newStore(t)) })
	t.Run("work round trip", func(t *testing.T) { testWorkRoundTrip(t, newStore(t)) })
	t.Run("remove work", func(t *testing.T) { testRemoveWork(t, newStore(t)) })
	t.Run("list works after removal", func(t *testing.T) { testListWorksAfterRemoval(t, newStore(t)) })
	t.Run("transaction rollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("idempotency", func(t *testing.T) { testIdempotency(t, newStore(t)) })
	t.Run("outbox", func(t *testing.T) { testOutbox(t, newStore(t)) })
}

func Author(id string) entities.Author {
	author, err := entities.NewAuthor(id, "Name "+id, 40, baseTime)
	if err != nil {
		panic(err)
	}
	return author
}

func Work(id string, owner string, offset time.Duration, collaborators ...string) entities.Work {
	work, err := entities.NewWork(entities.NewWorkParams{
		WorkID:        id,
		DisplayID:     "display-" + id,
		Title:         "Title " + id,
		Content:       "content " + id,
		Author:        Author(owner).Snapshot(baseTime),
		Fee:           25,
		Collaborators: collaborators,
		PublishedAt:   baseTime.Add(offset),
	})
	if err != nil {
		panic(err)
	}
	return work
}

func workIDs(works []entities.Work) []string {
	ids := make([]string, 0, len(works))
	for _, work := range works {
		ids = append(ids, work.WorkID)
	}
	return ids
}

func testAuthors(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.GetAuthor(ctx, "alice")
	assert.ErrorIs(t, err, domainerrors.ErrAuthorNotFound)

	require.NoError(t, store.CreateAuthor(ctx, Author("alice")))
	require.NoError(t, store.CreateAuthor(ctx, Author("bob")))
	assert.ErrorIs(t, store.CreateAuthor(ctx, Author("alice")), domainerrors.ErrAuthorAlreadyExists)

	alice, err := store.GetAuthor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Name alice", alice.Name)
	assert.True(t, baseTime.Equal(alice.CreatedAt))

	alice.Age = 41
	alice.RatedWorks = append(alice.RatedWorks, entities.RatedWork{WorkID: "w1", Rating: 4, RatedAt: baseTime})
	require.NoError(t, store.SaveAuthor(ctx, alice))

	reloaded, err := store.GetAuthor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 41, reloaded.Age)
	require.Len(t, reloaded.RatedWorks, 1)
	assert.Equal(t, 4, reloaded.RatedWorks[0].Rating)

	assert.ErrorIs(t, store.SaveAuthor(ctx, Author("ghost")), domainerrors.ErrAuthorNotFound)

	list, err := store.ListAuthors(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].AuthorID)
	assert.Equal(t, "bob", list[1].AuthorID)

	require.NoError(t, store.DeleteAuthor(ctx, "alice"))
	assert.ErrorIs(t, store.DeleteAuthor(ctx, "alice"), domainerrors.ErrAuthorNotFound)

	count, err := store.CountAuthors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func testWorkOrdering(t *testing.T, store Store) {
	ctx := context.Background()

	require.NoError(t, store.SaveWork(ctx, Work("a1", "alice", 0)))
	require.NoError(t, store.SaveWork(ctx, Work("b1", "bob", time.Minute)))
	require.NoError(t, store.SaveWork(ctx, Work("a2", "alice", 2*time.Minute)))

	byAlice, err := store.ListWorksByAuthor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, workIDs(byAlice))

	updated := byAlice[0]
	updated.Title = "Renamed"
	require.NoError(t, store.SaveWork(ctx, updated))

	byAlice, err = store.ListWorksByAuthor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, workIDs(byAlice))
	assert.Equal(t, "Renamed", byAlice[0].Title)

	all, err := store.ListWorks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "b1"}, workIDs(all))

	none, err := store.ListWorksByAuthor(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	count, err := store.CountWorks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	moved := Work("a1", "bob", 0)
	assert.ErrorIs(t, store.SaveWork(ctx, moved), domainerrors.ErrRepositoryInvariantBroke)
}

func testListWorksAfterRemoval(t *testing.T, store Store) {
	ctx := context.Background()

	require.NoError(t, store.SaveWork(ctx, Work("a1", "alice", 0)))
	require.NoError(t, store.SaveWork(ctx, Work("c1", "carol", time.Minute)))
	require.NoError(t, store.SaveWork(ctx, Work("b1", "bob", time.Minute)))
	require.NoError(t, store.SaveWork(ctx, Work("a2", "alice", 2*time.Minute)))

	all, err := store.ListWorks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "b1", "c1"}, workIDs(all))

	removed, err := store.RemoveWork(ctx, "alice", "a1")
	require.NoError(t, err)
	require.True(t, removed)

	all, err = store.ListWorks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "c1", "a2"}, workIDs(all))
}

func testWorkRoundTrip(t *testing.T, store Store) {
	ctx := context.Background()

	plain := Work("plain", "alice", 0, "bob")
	require.NoError(t, store.SaveWork(ctx, plain))

	got, err := store.GetWork(ctx, "plain")
	require.NoError(t, err)
	assert.Nil(t, got.Ratios)
	assert.Nil(t, got.Votes)
	assert.Nil(t, got.AverageRating)
	assert.Equal(t, []string{"bob"}, got.Collaborators)
	assert.Equal(t, "alice", got.OwnerID())
	assert.Equal(t, int64(25), got.Fee)
	assert.True(t, baseTime.Equal(got.PublishedAt))

	avg := 3.5
	rich := Work("rich", "alice", time.Minute, "bob", "carol")
	rich.Ratios = []entities.Ratio{{AccountID: "alice", Percentage: 60}, {AccountID: "bob", Percentage: 40}}
	rich.Ratings = []entities.Rating{{VoterID: "dave", Value: 3}, {VoterID: "erin", Value: 4}}
	rich.AverageRating = &avg
	rich.Reports = []entities.Report{{ReporterID: "frank", Reason: "copied", ReportedAt: baseTime}}
	rich.AuthorizedUsers = []string{"gina"}
	rich.Votes = []entities.Vote{{VoterID: "bob", Decision: true, CastAt: baseTime}}
	require.NoError(t, store.SaveWork(ctx, rich))

	got, err = store.GetWork(ctx, "rich")
	require.NoError(t, err)
	assert.Equal(t, rich.Ratios, got.Ratios)
	assert.Equal(t, rich.Ratings, got.Ratings)
	require.NotNil(t, got.AverageRating)
	assert.InDelta(t, avg, *got.AverageRating, 1e-9)
	require.Len(t, got.Reports, 1)
	assert.Equal(t, "copied", got.Reports[0].Reason)
	assert.Equal(t, []string{"gina"}, got.AuthorizedUsers)
	require.Len(t, got.Votes, 1)
	assert.True(t, got.Votes[0].Decision)

	got.Votes = nil
	require.NoError(t, store.SaveWork(ctx, got))
	closed, err := store.GetWork(ctx, "rich")
	require.NoError(t, err)
	assert.Nil(t, closed.Votes)

	_, err = store.GetWork(ctx, "missing")
	assert.ErrorIs(t, err, domainerrors.ErrWorkNotFound)
}

func testRemoveWork(t *testing.T, store Store) {
	ctx := context.Background()

	for i, id := range []string{"w1", "w2", "w3"} {
		require.NoError(t, store.SaveWork(ctx, Work(id, "alice", time.Duration(i)*time.Minute)))
	}

	removed, err := store.RemoveWork(ctx, "bob", "w2")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = store.RemoveWork(ctx, "alice", "w2")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.RemoveWork(ctx, "alice", "w2")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = store.GetWork(ctx, "w2")
	assert.ErrorIs(t, err, domainerrors.ErrWorkNotFound)

	third, err := store.GetWork(ctx, "w3")
	require.NoError(t, err)
	third.Title = "still addressable"
	require.NoError(t, store.SaveWork(ctx, third))

	require.NoError(t, store.SaveWork(ctx, Work("w4", "alice", 5*time.Minute)))

	list, err := store.ListWorksByAuthor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"w1", "w3", "w4"}, workIDs(list))
	assert.Equal(t, "still addressable", list[1].Title)
}

func testRollback(t *testing.T, store Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.RunInTx(ctx, func(ctx context.Context) error {
		if err := store.CreateAuthor(ctx, Author("alice")); err != nil {
			return err
		}
		if err := store.SaveWork(ctx, Work("w1", "alice", 0)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.GetAuthor(ctx, "alice")
	assert.ErrorIs(t, err, domainerrors.ErrAuthorNotFound)
	_, err = store.GetWork(ctx, "w1")
	assert.ErrorIs(t, err, domainerrors.ErrWorkNotFound)

	err = store.RunInTx(ctx, func(ctx context.Context) error {
		return store.RunInTx(ctx, func(ctx context.Context) error {
			return store.CreateAuthor(ctx, Author("bob"))
		})
	})
	require.NoError(t, err)
	_, err = store.GetAuthor(ctx, "bob")
	require.NoError(t, err)
}

func testIdempotency(t *testing.T, store Store) {
	ctx := context.Background()

	claim := ports.IdempotencyRecord{Key: "k1", RequestHash: "hash-1", ExpiresAt: baseTime.Add(time.Minute)}
	_, claimed, err := store.Claim(ctx, claim, baseTime)
	require.NoError(t, err)
	require.True(t, claimed)

	existing, claimed, err := store.Claim(ctx, claim, baseTime)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, "hash-1", existing.RequestHash)
	assert.True(t, existing.Pending())

	record := ports.IdempotencyRecord{
		Key:         "k1",
		RequestHash: "hash-1",
		Payload:     []byte(`{"ok":true}`),
		ExpiresAt:   baseTime.Add(time.Hour),
	}
	require.NoError(t, store.Put(ctx, record))

	existing, claimed, err = store.Claim(ctx, claim, baseTime)
	require.NoError(t, err)
	require.False(t, claimed)
	assert.False(t, existing.Pending())
	assert.JSONEq(t, `{"ok":true}`, string(existing.Payload))

	conflicting := record
	conflicting.RequestHash = "hash-2"
	assert.ErrorIs(t, store.Put(ctx, conflicting), domainerrors.ErrIdempotencyConflict)

	// Completed records are not released.
	require.NoError(t, store.Release(ctx, "k1", "hash-1"))
	_, claimed, err = store.Claim(ctx, claim, baseTime)
	require.NoError(t, err)
	assert.False(t, claimed)

	_, claimed, err = store.Claim(ctx, claim, baseTime.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, claimed, "expired record is taken over")

	require.NoError(t, store.Release(ctx, "k1", "hash-1"))
	_, claimed, err = store.Claim(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "hash-3", ExpiresAt: baseTime.Add(3 * time.Hour)}, baseTime.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, claimed, "released claim frees the key")
}

func testOutbox(t *testing.T, store Store) {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendOutbox(ctx, ports.EventEnvelope{
			EventID:       fmt.Sprintf("evt-%d", i),
			EventType:     "work.created",
			OccurredAt:    baseTime.Add(time.Duration(i) * time.Second),
			SourceService: "test",
			SchemaVersion: 1,
			PartitionKey:  "w1",
			Data:          []byte(`{"work_id":"w1"}`),
		}))
	}
	assert.ErrorIs(t, store.AppendOutbox(ctx, ports.EventEnvelope{EventID: "evt-0", EventType: "work.created", OccurredAt: baseTime}),
		domainerrors.ErrRepositoryInvariantBroke)

	pending, err := store.ListPendingOutbox(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "evt-0", pending[0].OutboxID)
	assert.Equal(t, "evt-1", pending[1].OutboxID)
	assert.Equal(t, "w1", pending[0].PartitionKey)
	assert.Contains(t, string(pending[0].Payload), `"event_id":"evt-0"`)

	require.NoError(t, store.MarkOutboxSent(ctx, "evt-0", baseTime.Add(time.Minute)))
	assert.ErrorIs(t, store.MarkOutboxSent(ctx, "evt-missing", baseTime), domainerrors.ErrRepositoryInvariantBroke)

	pending, err = store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"evt-1", "evt-2"}, []string{pending[0].OutboxID, pending[1].OutboxID})
}
