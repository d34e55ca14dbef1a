package commands

import (
	"context"
	"log/slog"

	application "atelier/contexts/creative-works/work-governance/application"
	"atelier/contexts/creative-works/work-governance/domain/entities"
	"atelier/contexts/creative-works/work-governance/domain/services"
	"atelier/contexts/creative-works/work-governance/ports"
	contractsv1 "atelier/contracts/gen/events/v1"
)

type RateWorkCommand struct {
	CallerID string
	WorkID   string
	Rating   int
}

type RateWorkResult struct {
	WorkID        string
	Changed       bool
	RatingCount   int
	AverageRating *float64
}

type ReportInfringementCommand struct {
	CallerID string
	WorkID   string
	Reason   string
}

// EngagementUseCase covers the non-governance interactions any registered
// or paying account may have with a work: ratings and infringement reports.
type EngagementUseCase struct {
	Authors     ports.AuthorRepository
	Works       ports.WorkRepository
	Tx          ports.TxManager
	Outbox      ports.OutboxWriter
	IDGenerator ports.IDGenerator
	Clock       ports.Clock
	Logger      *slog.Logger
}

// RateWork applies the caller's rating and records it in the caller's rating
// history. The rater must be a registered author.
func (u EngagementUseCase) RateWork(ctx context.Context, cmd RateWorkCommand) (RateWorkResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := requireCaller(cmd.CallerID); err != nil {
		return RateWorkResult{}, err
	}

	var result RateWorkResult
	err := u.Tx.RunInTx(ctx, func(ctx context.Context) error {
		work, err := u.Works.GetWork(ctx, cmd.WorkID)
		if err != nil {
			return err
		}
		rater, err := u.Authors.GetAuthor(ctx, cmd.CallerID)
		if err != nil {
			return err
		}

		changed, err := services.ApplyRating(&work, cmd.CallerID, cmd.Rating)
		if err != nil {
			return err
		}
		now := resolveNow(u.Clock)
		if changed {
			if err := u.Works.SaveWork(ctx, work); err != nil {
				return err
			}
		}

		rater.RatedWorks = append(rater.RatedWorks, entities.RatedWork{
			WorkID:  work.WorkID,
			Rating:  cmd.Rating,
			RatedAt: now,
		})
		if err := u.Authors.SaveAuthor(ctx, rater); err != nil {
			return err
		}

		result = RateWorkResult{
			WorkID:        work.WorkID,
			Changed:       changed,
			RatingCount:   len(work.Ratings),
			AverageRating: work.AverageRating,
		}
		if !changed {
			return nil
		}
		return application.AppendEvent(ctx, u.Outbox, u.IDGenerator, workEvent(contractsv1.EventWorkRated, work, now, map[string]any{
			"voter_id":       cmd.CallerID,
			"rating":         cmd.Rating,
			"average_rating": work.AverageRating,
		}))
	})
	if err != nil {
		logger.Warn("rate work failed",
			"event", "work_governance_rate_work_failed",
			"module", moduleName,
			"layer", "application",
			"work_id", cmd.WorkID,
			"voter_id", cmd.CallerID,
			"error", err.Error(),
		)
		return RateWorkResult{}, err
	}
	return result, nil
}

func (u EngagementUseCase) ReportInfringement(ctx context.Context, cmd ReportInfringementCommand) (bool, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := requireCaller(cmd.CallerID); err != nil {
		return false, err
	}

	err := u.Tx.RunInTx(ctx, func(ctx context.Context) error {
		work, err := u.Works.GetWork(ctx, cmd.WorkID)
		if err != nil {
			return err
		}
		now := resolveNow(u.Clock)
		appended, err := services.UpsertReport(&work, cmd.CallerID, cmd.Reason, now)
		if err != nil {
			return err
		}
		if err := u.Works.SaveWork(ctx, work); err != nil {
			return err
		}
		return application.AppendEvent(ctx, u.Outbox, u.IDGenerator, workEvent(contractsv1.EventWorkInfringementReport, work, now, map[string]any{
			"reporter_id": cmd.CallerID,
			"new_report":  appended,
		}))
	})
	if err != nil {
		logger.Warn("report infringement failed",
			"event", "work_governance_report_infringement_failed",
			"module", moduleName,
			"layer", "application",
			"work_id", cmd.WorkID,
			"reporter_id", cmd.CallerID,
			"error", err.Error(),
		)
		return false, err
	}

	logger.Info("infringement reported",
		"event", "work_governance_infringement_reported",
		"module", moduleName,
		"layer", "application",
		"work_id", cmd.WorkID,
		"reporter_id", cmd.CallerID,
	)
	return true, nil
}
