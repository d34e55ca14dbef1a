package commands

import (
	"context"
	"log/slog"
	"strings"

	application "atelier/contexts/creative-works/work-governance/application"
	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
	"atelier/contexts/creative-works/work-governance/domain/services"
	"atelier/contexts/creative-works/work-governance/ports"
	contractsv1 "atelier/contracts/gen/events/v1"
)

type CreateAuthorCommand struct {
	CallerID string
	Name     string
	Age      int
}

type UpdateAuthorCommand struct {
	CallerID string
	Name     *string
	Age      *int
}

type DeleteAuthorCommand struct {
	CallerID string
	AuthorID string
}

type AuthorUseCase struct {
	Authors     ports.AuthorRepository
	Tx          ports.TxManager
	Outbox      ports.OutboxWriter
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Logger      *slog.Logger
}

// CreateAuthor registers the caller's identity as an author. Each identity
// can register once.
func (u AuthorUseCase) CreateAuthor(ctx context.Context, cmd CreateAuthorCommand) (entities.Author, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := requireCaller(cmd.CallerID); err != nil {
		return entities.Author{}, err
	}

	author, err := entities.NewAuthor(cmd.CallerID, cmd.Name, cmd.Age, resolveNow(u.Clock))
	if err != nil {
		return entities.Author{}, err
	}

	err = u.Tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := u.Authors.CreateAuthor(ctx, author); err != nil {
			return err
		}
		return application.AppendEvent(ctx, u.Outbox, u.IDGenerator, authorEvent(contractsv1.EventAuthorCreated, author))
	})
	if err != nil {
		logger.Warn("create author failed",
			"event", "work_governance_create_author_failed",
			"module", moduleName,
			"layer", "application",
			"author_id", cmd.CallerID,
			"error", err.Error(),
		)
		return entities.Author{}, err
	}

	logger.Info("author created",
		"event", "work_governance_author_created",
		"module", moduleName,
		"layer", "application",
		"author_id", author.AuthorID,
	)
	return author, nil
}

func (u AuthorUseCase) UpdateAuthor(ctx context.Context, cmd UpdateAuthorCommand) (entities.Author, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := requireCaller(cmd.CallerID); err != nil {
		return entities.Author{}, err
	}
	if cmd.Name != nil && strings.TrimSpace(*cmd.Name) == "" {
		return entities.Author{}, domainerrors.ErrInvalidInput
	}
	if cmd.Age != nil && *cmd.Age < 0 {
		return entities.Author{}, domainerrors.ErrInvalidInput
	}

	var updated entities.Author
	err := u.Tx.RunInTx(ctx, func(ctx context.Context) error {
		author, err := u.Authors.GetAuthor(ctx, cmd.CallerID)
		if err != nil {
			return err
		}
		if _, err := services.AuthorizeAuthorAction(services.ActionUpdateAuthor, author.AuthorID, cmd.CallerID); err != nil {
			return err
		}

		if cmd.Name != nil {
			author.Name = strings.TrimSpace(*cmd.Name)
		}
		if cmd.Age != nil {
			author.Age = *cmd.Age
		}
		author.UpdatedAt = resolveNow(u.Clock)
		if err := u.Authors.SaveAuthor(ctx, author); err != nil {
			return err
		}
		updated = author
		return application.AppendEvent(ctx, u.Outbox, u.IDGenerator, authorEvent(contractsv1.EventAuthorUpdated, author))
	})
	if err != nil {
		logger.Warn("update author failed",
			"event", "work_governance_update_author_failed",
			"module", moduleName,
			"layer", "application",
			"author_id", cmd.CallerID,
			"error", err.Error(),
		)
		return entities.Author{}, err
	}
	return updated, nil
}

// DeleteAuthor removes the caller's own author record. It is not gated by
// consensus and leaves the author's works in place.
func (u AuthorUseCase) DeleteAuthor(ctx context.Context, cmd DeleteAuthorCommand) (bool, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := requireCaller(cmd.CallerID); err != nil {
		return false, err
	}
	if strings.TrimSpace(cmd.AuthorID) == "" {
		return false, domainerrors.ErrInvalidInput
	}

	err := u.Tx.RunInTx(ctx, func(ctx context.Context) error {
		author, err := u.Authors.GetAuthor(ctx, cmd.AuthorID)
		if err != nil {
			return err
		}
		if _, err := services.AuthorizeAuthorAction(services.ActionDeleteAuthor, author.AuthorID, cmd.CallerID); err != nil {
			return err
		}
		if err := u.Authors.DeleteAuthor(ctx, author.AuthorID); err != nil {
			return err
		}
		return application.AppendEvent(ctx, u.Outbox, u.IDGenerator, application.EventSpec{
			EventType:        contractsv1.EventAuthorDeleted,
			PartitionKeyPath: "author_id",
			PartitionKey:     author.AuthorID,
			OccurredAt:       resolveNow(u.Clock),
			Data:             map[string]string{"author_id": author.AuthorID},
		})
	})
	if err != nil {
		logger.Warn("delete author failed",
			"event", "work_governance_delete_author_failed",
			"module", moduleName,
			"layer", "application",
			"author_id", cmd.AuthorID,
			"caller_id", cmd.CallerID,
			"error", err.Error(),
		)
		return false, err
	}

	logger.Info("author deleted",
		"event", "work_governance_author_deleted",
		"module", moduleName,
		"layer", "application",
		"author_id", cmd.AuthorID,
	)
	return true, nil
}

func authorEvent(eventType string, author entities.Author) application.EventSpec {
	return application.EventSpec{
		EventType:        eventType,
		PartitionKeyPath: "author_id",
		PartitionKey:     author.AuthorID,
		OccurredAt:       author.UpdatedAt,
		Data: map[string]any{
			"author_id": author.AuthorID,
			"name":      author.Name,
			"age":       author.Age,
		},
	}
}
