package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "atelier/contexts/creative-works/work-governance/application"
	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
	"atelier/contexts/creative-works/work-governance/domain/services"
	"atelier/contexts/creative-works/work-governance/ports"
	contractsv1 "atelier/contracts/gen/events/v1"
)

type CreateWorkCommand struct {
	CallerID      string
	Title         string
	Content       string
	Collaborators []string
	Fee           *int64
	Ratios        []entities.Ratio
}

// UpdateWorkCommand leaves a field untouched when it is nil.
type UpdateWorkCommand struct {
	CallerID      string
	WorkID        string
	Title         *string
	Content       *string
	Fee           *int64
	// AverageRating overrides the stored average, even on an unrated work.
	// The next rate_work recomputes it from the ratings.
	AverageRating *float64
	Ratios        []entities.Ratio
}

type WorkUseCase struct {
	Authors     ports.AuthorRepository
	Works       ports.WorkRepository
	Tx          ports.TxManager
	Outbox      ports.OutboxWriter
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (u WorkUseCase) CreateWork(ctx context.Context, cmd CreateWorkCommand) (entities.Work, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := requireCaller(cmd.CallerID); err != nil {
		return entities.Work{}, err
	}
	if err := services.ValidateCollaborators(cmd.CallerID, cmd.Collaborators); err != nil {
		return entities.Work{}, err
	}
	if err := services.ValidateRatios(cmd.Ratios); err != nil {
		return entities.Work{}, err
	}
	var fee int64
	if cmd.Fee != nil {
		fee = *cmd.Fee
	}

	var created entities.Work
	err := u.Tx.RunInTx(ctx, func(ctx context.Context) error {
		author, err := u.Authors.GetAuthor(ctx, cmd.CallerID)
		if err != nil {
			return err
		}
		workID, err := u.IDGenerator.NewID(ctx)
		if err != nil {
			return err
		}
		now := resolveNow(u.Clock)
		work, err := entities.NewWork(entities.NewWorkParams{
			WorkID:        workID,
			DisplayID:     services.DisplayID(cmd.Title, now),
			Title:         cmd.Title,
			Content:       cmd.Content,
			Author:        author.Snapshot(now),
			Fee:           fee,
			Collaborators: cmd.Collaborators,
			Ratios:        cmd.Ratios,
			PublishedAt:   now,
		})
		if err != nil {
			return err
		}
		if err := u.Works.SaveWork(ctx, work); err != nil {
			return err
		}
		created = work
		return application.AppendEvent(ctx, u.Outbox, u.IDGenerator, workEvent(contractsv1.EventWorkCreated, work, now, map[string]any{
			"title":         work.Title,
			"display_id":    work.DisplayID,
			"fee":           work.Fee,
			"collaborators": work.Collaborators,
		}))
	})
	if err != nil {
		logger.Warn("create work failed",
			"event", "work_governance_create_work_failed",
			"module", moduleName,
			"layer", "application",
			"author_id", cmd.CallerID,
			"error", err.Error(),
		)
		return entities.Work{}, err
	}

	logger.Info("work created",
		"event", "work_governance_work_created",
		"module", moduleName,
		"layer", "application",
		"work_id", created.WorkID,
		"display_id", created.DisplayID,
		"author_id", created.OwnerID(),
	)
	return services.Project(created, cmd.CallerID), nil
}

func (u WorkUseCase) UpdateWork(ctx context.Context, cmd UpdateWorkCommand) (entities.Work, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := requireCaller(cmd.CallerID); err != nil {
		return entities.Work{}, err
	}
	if cmd.Title != nil && strings.TrimSpace(*cmd.Title) == "" {
		return entities.Work{}, domainerrors.ErrInvalidInput
	}
	if cmd.Fee != nil && *cmd.Fee < 0 {
		return entities.Work{}, domainerrors.ErrInvalidInput
	}
	if cmd.AverageRating != nil && !services.ValidAverageRating(*cmd.AverageRating) {
		return entities.Work{}, domainerrors.ErrRatingOutOfRange
	}
	if err := services.ValidateRatios(cmd.Ratios); err != nil {
		return entities.Work{}, err
	}

	var updated entities.Work
	err := u.Tx.RunInTx(ctx, func(ctx context.Context) error {
		work, err := u.Works.GetWork(ctx, cmd.WorkID)
		if err != nil {
			return err
		}
		if _, err := services.AuthorizeWorkAction(services.ActionUpdateWork, work, cmd.CallerID); err != nil {
			return err
		}

		if cmd.Title != nil {
			work.Title = strings.TrimSpace(*cmd.Title)
		}
		if cmd.Content != nil {
			work.Content = *cmd.Content
		}
		if cmd.Fee != nil {
			work.Fee = *cmd.Fee
		}
		if cmd.AverageRating != nil {
			avg := *cmd.AverageRating
			work.AverageRating = &avg
		}
		if cmd.Ratios != nil {
			work.Ratios = cmd.Ratios
		}
		work.UpdatedAt = resolveNow(u.Clock)

		if err := u.Works.SaveWork(ctx, work); err != nil {
			return err
		}
		updated = work
		return application.AppendEvent(ctx, u.Outbox, u.IDGenerator, workEvent(contractsv1.EventWorkUpdated, work, work.UpdatedAt, map[string]any{
			"title": work.Title,
			"fee":   work.Fee,
		}))
	})
	if err != nil {
		logger.Warn("update work failed",
			"event", "work_governance_update_work_failed",
			"module", moduleName,
			"layer", "application",
			"work_id", cmd.WorkID,
			"caller_id", cmd.CallerID,
			"error", err.Error(),
		)
		return entities.Work{}, err
	}
	return services.Project(updated, cmd.CallerID), nil
}

func workEvent(eventType string, work entities.Work, at time.Time, extra map[string]any) application.EventSpec {
	data := map[string]any{
		"work_id":   work.WorkID,
		"author_id": work.OwnerID(),
	}
	for key, value := range extra {
		data[key] = value
	}
	return application.EventSpec{
		EventType:        eventType,
		PartitionKeyPath: "work_id",
		PartitionKey:     work.WorkID,
		OccurredAt:       at,
		Data:             data,
	}
}
