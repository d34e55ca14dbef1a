package entities

import (
	"strings"
	"time"

	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
)

type Author struct {
	AuthorID   string
	Name       string
	Age        int
	RatedWorks []RatedWork
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RatedWork is one entry of an author's rating history. Retractions are
// recorded with Rating 0.
type RatedWork struct {
	WorkID  string
	Rating  int
	RatedAt time.Time
}

// AuthorSnapshot is the copy of the owning author embedded in a work at
// creation. It is not refreshed when the author record changes later.
type AuthorSnapshot struct {
	AuthorID   string
	Name       string
	Age        int
	CapturedAt time.Time
}

func NewAuthor(authorID string, name string, age int, now time.Time) (Author, error) {
	if strings.TrimSpace(authorID) == "" || strings.TrimSpace(name) == "" || age < 0 {
		return Author{}, domainerrors.ErrInvalidInput
	}
	return Author{
		AuthorID:  authorID,
		Name:      strings.TrimSpace(name),
		Age:       age,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

func (a Author) Snapshot(at time.Time) AuthorSnapshot {
	return AuthorSnapshot{
		AuthorID:   a.AuthorID,
		Name:       a.Name,
		Age:        a.Age,
		CapturedAt: at.UTC(),
	}
}

func (a Author) Clone() Author {
	out := a
	out.RatedWorks = append([]RatedWork(nil), a.RatedWorks...)
	return out
}
