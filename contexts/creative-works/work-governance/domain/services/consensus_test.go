package services

import (
	"testing"
	"time"

	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var votedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func workWithCollaborators(collaborators ...string) entities.Work {
	return entities.Work{
		WorkID:        "work-1",
		Title:         "The Green Garden",
		Author:        entities.AuthorSnapshot{AuthorID: "alice"},
		Collaborators: collaborators,
	}
}

func castAll(t *testing.T, work *entities.Work, votes map[string]bool, order ...string) {
	t.Helper()
	for _, voter := range order {
		require.NoError(t, CastVote(work, voter, votes[voter], votedAt))
	}
}

func TestResolveRoundTwoPeopleNeedsOnlyCallerVote(t *testing.T) {
	work := workWithCollaborators("bob")
	castAll(t, &work, map[string]bool{"alice": true}, "alice")

	tally, err := ResolveRound(work, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, tally.TotalPeople)
	assert.Equal(t, 1, tally.Agree)
}

func TestResolveRoundFivePeopleQuorum(t *testing.T) {
	collaborators := []string{"bob", "carol", "dave", "erin"}

	t.Run("two agree one disagree approves", func(t *testing.T) {
		work := workWithCollaborators(collaborators...)
		castAll(t, &work, map[string]bool{"alice": true, "bob": true, "carol": false}, "alice", "bob", "carol")

		tally, err := ResolveRound(work, "alice")
		require.NoError(t, err)
		assert.Equal(t, 3, tally.RequiredVotes)
		assert.Equal(t, 3, tally.TotalVotes)
	})

	t.Run("one agree two disagree rejects", func(t *testing.T) {
		work := workWithCollaborators(collaborators...)
		castAll(t, &work, map[string]bool{"alice": true, "bob": false, "carol": false}, "alice", "bob", "carol")

		_, err := ResolveRound(work, "alice")
		require.ErrorIs(t, err, domainerrors.ErrConsensusRejected)
	})

	t.Run("two votes is below quorum", func(t *testing.T) {
		work := workWithCollaborators(collaborators...)
		castAll(t, &work, map[string]bool{"alice": true, "bob": true}, "alice", "bob")

		_, err := ResolveRound(work, "alice")
		require.ErrorIs(t, err, domainerrors.ErrQuorumNotMet)
	})
}

func TestResolveRoundRequiresCallerVote(t *testing.T) {
	work := workWithCollaborators("bob")
	castAll(t, &work, map[string]bool{"bob": true}, "bob")

	_, err := ResolveRound(work, "alice")
	require.ErrorIs(t, err, domainerrors.ErrQuorumNotMet)
}

func TestResolveRoundTieIsRejection(t *testing.T) {
	work := workWithCollaborators("bob")
	castAll(t, &work, map[string]bool{"alice": true, "bob": false}, "alice", "bob")

	_, err := ResolveRound(work, "alice")
	require.ErrorIs(t, err, domainerrors.ErrConsensusRejected)
}

func TestResolveRoundWithoutVotes(t *testing.T) {
	_, err := ResolveRound(workWithCollaborators(), "alice")
	require.ErrorIs(t, err, domainerrors.ErrNoOpenRound)
}

func TestCastVoteRejectsSecondVoteInRound(t *testing.T) {
	work := workWithCollaborators("bob")
	require.NoError(t, CastVote(&work, "bob", true, votedAt))
	require.ErrorIs(t, CastVote(&work, "bob", false, votedAt), domainerrors.ErrAlreadyVoted)
	assert.Len(t, work.Votes, 1)
}

func TestCloseRoundStartsFreshTally(t *testing.T) {
	work := workWithCollaborators("bob")
	require.NoError(t, CastVote(&work, "alice", true, votedAt))
	CloseRound(&work)
	assert.False(t, work.HasOpenRound())

	require.NoError(t, CastVote(&work, "alice", false, votedAt))
	tally, err := TallyRound(work, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, tally.TotalVotes)
	assert.Equal(t, 1, tally.Disagree)
}

func TestRequiredVotes(t *testing.T) {
	cases := map[int]int{1: 1, 2: 1, 3: 1, 4: 2, 5: 3, 9: 6}
	for people, want := range cases {
		assert.Equal(t, want, requiredVotes(people), "people=%d", people)
	}
}
