package services

import (
	"testing"

	"atelier/contexts/creative-works/work-governance/domain/entities"

	"github.com/stretchr/testify/assert"
)

func governedWork() entities.Work {
	return entities.Work{
		WorkID:          "work-1",
		Title:           "Night Train",
		Content:         "the full manuscript",
		Author:          entities.AuthorSnapshot{AuthorID: "alice"},
		Collaborators:   []string{"bob"},
		Reports:         []entities.Report{{ReporterID: "mallory", Reason: "copied"}},
		Ratios:          []entities.Ratio{{AccountID: "alice", Percentage: 60}, {AccountID: "bob", Percentage: 40}},
		AuthorizedUsers: []string{"paula"},
		Votes:           []entities.Vote{{VoterID: "alice", Decision: true}},
	}
}

func TestProjectTiers(t *testing.T) {
	work := governedWork()

	tests := []struct {
		name       string
		caller     string
		visibility entities.Visibility
		content    string
		governance bool
	}{
		{name: "author", caller: "alice", visibility: entities.VisibilityFull, content: "the full manuscript", governance: true},
		{name: "collaborator", caller: "bob", visibility: entities.VisibilityFull, content: "the full manuscript", governance: true},
		{name: "paying viewer", caller: "paula", visibility: entities.VisibilityAuthorized, content: "the full manuscript"},
		{name: "public", caller: "stranger", visibility: entities.VisibilityPublic, content: InvisibleContent},
		{name: "anonymous", caller: "", visibility: entities.VisibilityPublic, content: InvisibleContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			view := Project(work, tc.caller)
			assert.Equal(t, tc.visibility, view.Visibility)
			assert.Equal(t, tc.content, view.Content)
			if tc.governance {
				assert.Len(t, view.Reports, 1)
				assert.Len(t, view.Ratios, 2)
				assert.Len(t, view.Votes, 1)
				assert.Equal(t, []string{"paula"}, view.AuthorizedUsers)
				return
			}
			assert.Nil(t, view.Reports)
			assert.Nil(t, view.Ratios)
			assert.Nil(t, view.Votes)
			assert.Empty(t, view.AuthorizedUsers)
		})
	}
}

func TestProjectIsIdempotent(t *testing.T) {
	work := governedWork()
	for _, caller := range []string{"alice", "paula", "stranger"} {
		once := Project(work, caller)
		twice := Project(once, caller)
		assert.Equal(t, once, twice, "caller=%s", caller)
	}
}

func TestProjectDoesNotAliasStoredWork(t *testing.T) {
	work := governedWork()
	view := Project(work, "alice")
	view.Collaborators[0] = "changed"
	assert.Equal(t, "bob", work.Collaborators[0])
}

func TestProjectAllUsesSameTiering(t *testing.T) {
	work := governedWork()
	views := ProjectAll([]entities.Work{work, work}, "paula")
	for _, view := range views {
		assert.Equal(t, Project(work, "paula"), view)
	}
}
