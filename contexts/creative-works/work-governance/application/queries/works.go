package queries

import (
	"context"
	"log/slog"
	"strings"

	application "atelier/contexts/creative-works/work-governance/application"
	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
	"atelier/contexts/creative-works/work-governance/domain/services"
	"atelier/contexts/creative-works/work-governance/ports"
)

type GetWorkQuery struct {
	CallerID string
	WorkID   string
}

type ListWorksByAuthorQuery struct {
	CallerID string
	AuthorID string
}

// WorkQueries is the read side for works. Every work it returns has been
// through services.Project for the calling identity.
type WorkQueries struct {
	Works  ports.WorkRepository
	Logger *slog.Logger
}

func (q WorkQueries) GetWork(ctx context.Context, query GetWorkQuery) (entities.Work, error) {
	if strings.TrimSpace(query.WorkID) == "" {
		return entities.Work{}, domainerrors.ErrInvalidInput
	}
	work, err := q.Works.GetWork(ctx, query.WorkID)
	if err != nil {
		application.ResolveLogger(q.Logger).Debug("get work failed",
			"event", "work_governance_get_work_failed",
			"module", application.ModuleName,
			"layer", "application",
			"work_id", query.WorkID,
			"error", err.Error(),
		)
		return entities.Work{}, err
	}
	return services.Project(work, query.CallerID), nil
}

// ListWorksByAuthor also serves authors whose record was deleted: their
// works stay listed under the original author id.
func (q WorkQueries) ListWorksByAuthor(ctx context.Context, query ListWorksByAuthorQuery) ([]entities.Work, error) {
	if strings.TrimSpace(query.AuthorID) == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	works, err := q.Works.ListWorksByAuthor(ctx, query.AuthorID)
	if err != nil {
		return nil, err
	}
	return services.ProjectAll(works, query.CallerID), nil
}

func (q WorkQueries) ListWorks(ctx context.Context, callerID string) ([]entities.Work, error) {
	works, err := q.Works.ListWorks(ctx)
	if err != nil {
		application.ResolveLogger(q.Logger).Error("list works failed",
			"event", "work_governance_list_works_failed",
			"module", application.ModuleName,
			"layer", "application",
			"error", err.Error(),
		)
		return nil, err
	}
	return services.ProjectAll(works, callerID), nil
}
