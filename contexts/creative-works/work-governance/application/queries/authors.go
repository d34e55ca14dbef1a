package queries

import (
	"context"
	"log/slog"
	"strings"

	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
	"atelier/contexts/creative-works/work-governance/ports"
)

type Stats struct {
	Authors int
	Works   int
}

type AuthorQueries struct {
	Authors ports.AuthorRepository
	Works   ports.WorkRepository
	Logger  *slog.Logger
}

func (q AuthorQueries) GetAuthor(ctx context.Context, authorID string) (entities.Author, error) {
	if strings.TrimSpace(authorID) == "" {
		return entities.Author{}, domainerrors.ErrInvalidInput
	}
	return q.Authors.GetAuthor(ctx, authorID)
}

func (q AuthorQueries) ListAuthors(ctx context.Context) ([]entities.Author, error) {
	return q.Authors.ListAuthors(ctx)
}

// Stats returns the registry counters: live authors and stored works.
func (q AuthorQueries) Stats(ctx context.Context) (Stats, error) {
	authors, err := q.Authors.CountAuthors(ctx)
	if err != nil {
		return Stats{}, err
	}
	works, err := q.Works.CountWorks(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Authors: authors, Works: works}, nil
}
