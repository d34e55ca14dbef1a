package rowcodec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/contexts/creative-works/work-governance/domain/entities"
)

func TestWorkRoundTrip(t *testing.T) {
	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	avg := 4.5
	work := entities.Work{
		WorkID:          "w1",
		DisplayID:       "0",
		Title:           "Nocturne",
		Content:         "score",
		Author:          entities.AuthorSnapshot{AuthorID: "alice", Name: "Alice", Age: 30, CapturedAt: published},
		Fee:             12,
		Collaborators:   []string{"bob"},
		Ratings:         []entities.Rating{{VoterID: "carol", Value: 4}, {VoterID: "dan", Value: 5}},
		AverageRating:   &avg,
		PublishedAt:     published,
		UpdatedAt:       published,
		Reports:         []entities.Report{{ReporterID: "erin", Reason: "copied", ReportedAt: published}},
		Ratios:          []entities.Ratio{{AccountID: "alice", Percentage: 60}, {AccountID: "bob", Percentage: 40}},
		AuthorizedUsers: []string{"frank"},
		Votes:           []entities.Vote{{VoterID: "bob", Decision: true, CastAt: published}},
	}

	cols, err := EncodeWork(work)
	require.NoError(t, err)
	assert.Equal(t, "alice", cols.AuthorID)
	assert.Zero(t, cols.Position)

	decoded, err := DecodeWork(cols)
	require.NoError(t, err)
	assert.Equal(t, work.Ratios, decoded.Ratios)
	assert.Equal(t, work.Ratings, decoded.Ratings)
	assert.Equal(t, work.Collaborators, decoded.Collaborators)
	assert.Equal(t, work.AuthorizedUsers, decoded.AuthorizedUsers)
	assert.Equal(t, "Alice", decoded.Author.Name)
	assert.True(t, published.Equal(decoded.PublishedAt))
	assert.Equal(t, time.UTC, decoded.PublishedAt.Location())
	require.Len(t, decoded.Votes, 1)
	assert.True(t, decoded.Votes[0].Decision)
	require.NotNil(t, decoded.AverageRating)
	assert.InDelta(t, 4.5, *decoded.AverageRating, 0.0001)
	assert.NotSame(t, work.AverageRating, decoded.AverageRating)
}

func TestWorkRatiosNilVersusEmpty(t *testing.T) {
	cols, err := EncodeWork(entities.Work{WorkID: "w1"})
	require.NoError(t, err)
	assert.Equal(t, "null", cols.Ratios)
	assert.Equal(t, "[]", cols.Collaborators)

	decoded, err := DecodeWork(cols)
	require.NoError(t, err)
	assert.Nil(t, decoded.Ratios)
	assert.NotNil(t, decoded.Collaborators)
	assert.Empty(t, decoded.Votes)

	cols, err = EncodeWork(entities.Work{WorkID: "w2", Ratios: []entities.Ratio{}})
	require.NoError(t, err)
	assert.Equal(t, "[]", cols.Ratios)
	decoded, err = DecodeWork(cols)
	require.NoError(t, err)
	assert.NotNil(t, decoded.Ratios)
	assert.Empty(t, decoded.Ratios)
}

func TestAuthorRoundTrip(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	author := entities.Author{
		AuthorID:   "alice",
		Name:       "Alice",
		Age:        30,
		RatedWorks: []entities.RatedWork{{WorkID: "w1", Rating: 3, RatedAt: at}},
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	cols, err := EncodeAuthor(author)
	require.NoError(t, err)

	decoded, err := DecodeAuthor(cols)
	require.NoError(t, err)
	assert.Equal(t, author, decoded)
}

func TestDecodeRejectsCorruptDocument(t *testing.T) {
	_, err := DecodeWork(WorkColumns{WorkID: "w1", Votes: "{not json"})
	require.Error(t, err)

	_, err = DecodeAuthor(AuthorColumns{AuthorID: "a", RatedWorks: "[1"})
	require.Error(t, err)
}
