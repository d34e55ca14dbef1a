package entities

import (
	"slices"
	"strings"
	"time"

	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
)

// Visibility records which projection tier produced a view. Stored records
// carry the zero value.
type Visibility string

const (
	VisibilityStored     Visibility = ""
	VisibilityFull       Visibility = "full"
	VisibilityAuthorized Visibility = "authorized"
	VisibilityPublic     Visibility = "public"
)

type Work struct {
	WorkID          string
	DisplayID       string
	Title           string
	Content         string
	Author          AuthorSnapshot
	Fee             int64
	Collaborators   []string
	Ratings         []Rating
	AverageRating   *float64
	PublishedAt     time.Time
	UpdatedAt       time.Time
	Reports         []Report
	Ratios          []Ratio
	AuthorizedUsers []string
	// Votes is nil when no round is open.
	Votes      []Vote
	Visibility Visibility
}

type Rating struct {
	VoterID string
	Value   int
}

type Report struct {
	ReporterID string
	Reason     string
	ReportedAt time.Time
}

type Ratio struct {
	AccountID  string
	Percentage int
}

type Vote struct {
	VoterID  string
	Decision bool
	CastAt   time.Time
}

type NewWorkParams struct {
	WorkID        string
	DisplayID     string
	Title         string
	Content       string
	Author        AuthorSnapshot
	Fee           int64
	Collaborators []string
	Ratios        []Ratio
	PublishedAt   time.Time
}

func NewWork(params NewWorkParams) (Work, error) {
	if strings.TrimSpace(params.WorkID) == "" ||
		strings.TrimSpace(params.Title) == "" ||
		strings.TrimSpace(params.Author.AuthorID) == "" ||
		params.Fee < 0 {
		return Work{}, domainerrors.ErrInvalidInput
	}
	collaborators := slices.Clone(params.Collaborators)
	if collaborators == nil {
		collaborators = []string{}
	}
	return Work{
		WorkID:          params.WorkID,
		DisplayID:       params.DisplayID,
		Title:           strings.TrimSpace(params.Title),
		Content:         params.Content,
		Author:          params.Author,
		Fee:             params.Fee,
		Collaborators:   collaborators,
		Ratings:         []Rating{},
		PublishedAt:     params.PublishedAt.UTC(),
		UpdatedAt:       params.PublishedAt.UTC(),
		Ratios:          slices.Clone(params.Ratios),
		AuthorizedUsers: []string{},
	}, nil
}

func (w Work) OwnerID() string {
	return w.Author.AuthorID
}

func (w Work) IsAuthor(accountID string) bool {
	return accountID != "" && w.Author.AuthorID == accountID
}

func (w Work) IsCollaborator(accountID string) bool {
	return accountID != "" && slices.Contains(w.Collaborators, accountID)
}

// IsMember reports whether the account is the author or a collaborator.
func (w Work) IsMember(accountID string) bool {
	return w.IsAuthor(accountID) || w.IsCollaborator(accountID)
}

func (w Work) IsAuthorizedViewer(accountID string) bool {
	return accountID != "" && slices.Contains(w.AuthorizedUsers, accountID)
}

// Participants returns the author followed by every collaborator.
func (w Work) Participants() []string {
	out := make([]string, 0, 1+len(w.Collaborators))
	out = append(out, w.Author.AuthorID)
	return append(out, w.Collaborators...)
}

func (w Work) HasOpenRound() bool {
	return len(w.Votes) > 0
}

func (w Work) HasVoted(accountID string) bool {
	for _, vote := range w.Votes {
		if vote.VoterID == accountID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (w Work) Clone() Work {
	out := w
	out.Collaborators = slices.Clone(w.Collaborators)
	out.Ratings = slices.Clone(w.Ratings)
	out.Reports = slices.Clone(w.Reports)
	out.Ratios = slices.Clone(w.Ratios)
	out.AuthorizedUsers = slices.Clone(w.AuthorizedUsers)
	out.Votes = slices.Clone(w.Votes)
	if w.AverageRating != nil {
		avg := *w.AverageRating
		out.AverageRating = &avg
	}
	return out
}
