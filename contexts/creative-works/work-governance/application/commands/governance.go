package commands

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	application "atelier/contexts/creative-works/work-governance/application"
	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
	"atelier/contexts/creative-works/work-governance/domain/services"
	"atelier/contexts/creative-works/work-governance/ports"
	contractsv1 "atelier/contracts/gen/events/v1"
)

const defaultVoteFee int64 = 1

type VoteCommand struct {
	CallerID       string
	WorkID         string
	Decision       bool
	AttachedAmount int64
	IdempotencyKey string
}

type VoteResult struct {
	WorkID        string `json:"work_id"`
	TotalPeople   int    `json:"total_people"`
	TotalVotes    int    `json:"total_votes"`
	RequiredVotes int    `json:"required_votes"`
	Agree         int    `json:"agree"`
	Disagree      int    `json:"disagree"`
	Replayed      bool   `json:"-"`
}

type DeleteWorkCommand struct {
	CallerID string
	WorkID   string
}

type AddCollaboratorsCommand struct {
	CallerID      string
	WorkID        string
	Collaborators []string
}

// GovernanceUseCase runs the vote-gated actions on a work. VoteFee is the
// exact amount a voter must attach.
type GovernanceUseCase struct {
	Works          ports.WorkRepository
	Tx             ports.TxManager
	Outbox         ports.OutboxWriter
	Idempotency    ports.IdempotencyStore
	IDGenerator    ports.IDGenerator
	Clock          ports.Clock
	VoteFee        int64
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (u GovernanceUseCase) Vote(ctx context.Context, cmd VoteCommand) (VoteResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := requireCaller(cmd.CallerID); err != nil {
		return VoteResult{}, err
	}
	if err := requireIdempotency(cmd.IdempotencyKey); err != nil {
		return VoteResult{}, err
	}
	if cmd.AttachedAmount != u.voteFee() {
		return VoteResult{}, domainerrors.ErrPaymentMismatch
	}

	var result VoteResult
	runner := idempotentRunner{store: u.Idempotency, clock: u.Clock, ttl: u.IdempotencyTTL}
	requestHash := hashStrings("vote", cmd.CallerID, cmd.WorkID, strconv.FormatBool(cmd.Decision), strconv.FormatInt(cmd.AttachedAmount, 10))
	replayed, err := runner.run(ctx, cmd.IdempotencyKey, requestHash, &result, func() (any, error) {
		return u.castVote(ctx, cmd)
	})
	if err != nil {
		logger.Warn("vote failed",
			"event", "work_governance_vote_failed",
			"module", moduleName,
			"layer", "application",
			"work_id", cmd.WorkID,
			"voter_id", cmd.CallerID,
			"error", err.Error(),
		)
		return VoteResult{}, err
	}
	result.Replayed = replayed
	return result, nil
}

func (u GovernanceUseCase) castVote(ctx context.Context, cmd VoteCommand) (VoteResult, error) {
	var result VoteResult
	err := u.Tx.RunInTx(ctx, func(ctx context.Context) error {
		work, err := u.Works.GetWork(ctx, cmd.WorkID)
		if err != nil {
			return err
		}
		if _, err := services.AuthorizeWorkAction(services.ActionVote, work, cmd.CallerID); err != nil {
			return err
		}
		now := resolveNow(u.Clock)
		if err := services.CastVote(&work, cmd.CallerID, cmd.Decision, now); err != nil {
			return err
		}
		if err := u.Works.SaveWork(ctx, work); err != nil {
			return err
		}

		tally, err := services.TallyRound(work, cmd.CallerID)
		if err != nil {
			return err
		}
		result = VoteResult{
			WorkID:        work.WorkID,
			TotalPeople:   tally.TotalPeople,
			TotalVotes:    tally.TotalVotes,
			RequiredVotes: tally.RequiredVotes,
			Agree:         tally.Agree,
			Disagree:      tally.Disagree,
		}
		return application.AppendEvent(ctx, u.Outbox, u.IDGenerator, workEvent(contractsv1.EventWorkVoteCast, work, now, map[string]any{
			"voter_id":    cmd.CallerID,
			"decision":    cmd.Decision,
			"total_votes": tally.TotalVotes,
		}))
	})
	return result, err
}

// DeleteWork removes a work once its open round approves the deletion.
func (u GovernanceUseCase) DeleteWork(ctx context.Context, cmd DeleteWorkCommand) (bool, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := requireCaller(cmd.CallerID); err != nil {
		return false, err
	}

	rejected, err := u.resolveGated(ctx, services.ActionDeleteWork, cmd.WorkID, cmd.CallerID, nil,
		func(ctx context.Context, work entities.Work, now time.Time) error {
			removed, err := u.Works.RemoveWork(ctx, work.OwnerID(), work.WorkID)
			if err != nil {
				return err
			}
			if !removed {
				return domainerrors.ErrWorkNotFound
			}
			return application.AppendEvent(ctx, u.Outbox, u.IDGenerator, workEvent(contractsv1.EventWorkDeleted, work, now, nil))
		},
	)
	if err == nil && rejected {
		err = domainerrors.ErrConsensusRejected
	}
	if err != nil {
		logger.Warn("delete work failed",
			"event", "work_governance_delete_work_failed",
			"module", moduleName,
			"layer", "application",
			"work_id", cmd.WorkID,
			"caller_id", cmd.CallerID,
			"error", err.Error(),
		)
		return false, err
	}

	logger.Info("work deleted",
		"event", "work_governance_work_deleted",
		"module", moduleName,
		"layer", "application",
		"work_id", cmd.WorkID,
	)
	return true, nil
}

// AddCollaborators extends a work's collaborators once its open round
// approves the proposal.
func (u GovernanceUseCase) AddCollaborators(ctx context.Context, cmd AddCollaboratorsCommand) (bool, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := requireCaller(cmd.CallerID); err != nil {
		return false, err
	}

	precheck := func(work entities.Work) error {
		proposal := work.Clone()
		return services.AddCollaborators(&proposal, cmd.Collaborators)
	}
	rejected, err := u.resolveGated(ctx, services.ActionAddCollaborator, cmd.WorkID, cmd.CallerID, precheck,
		func(ctx context.Context, work entities.Work, now time.Time) error {
			if err := services.AddCollaborators(&work, cmd.Collaborators); err != nil {
				return err
			}
			services.CloseRound(&work)
			work.UpdatedAt = now
			if err := u.Works.SaveWork(ctx, work); err != nil {
				return err
			}
			return application.AppendEvent(ctx, u.Outbox, u.IDGenerator, workEvent(contractsv1.EventWorkCollaboratorsAdded, work, now, map[string]any{
				"added":         cmd.Collaborators,
				"collaborators": work.Collaborators,
			}))
		},
	)
	if err == nil && rejected {
		err = domainerrors.ErrConsensusRejected
	}
	if err != nil {
		logger.Warn("add collaborators failed",
			"event", "work_governance_add_collaborators_failed",
			"module", moduleName,
			"layer", "application",
			"work_id", cmd.WorkID,
			"caller_id", cmd.CallerID,
			"error", err.Error(),
		)
		return false, err
	}

	logger.Info("collaborators added",
		"event", "work_governance_collaborators_added",
		"module", moduleName,
		"layer", "application",
		"work_id", cmd.WorkID,
		"added_count", len(cmd.Collaborators),
	)
	return true, nil
}

// resolveGated authorizes the caller, resolves the open round and applies
// approve on approval. A rejection still commits the closed round, so it is
// reported through rejected rather than as a transaction error.
func (u GovernanceUseCase) resolveGated(
	ctx context.Context,
	action services.Action,
	workID string,
	callerID string,
	precheck func(entities.Work) error,
	approve func(ctx context.Context, work entities.Work, now time.Time) error,
) (rejected bool, err error) {
	if strings.TrimSpace(workID) == "" {
		return false, domainerrors.ErrInvalidInput
	}

	err = u.Tx.RunInTx(ctx, func(ctx context.Context) error {
		work, err := u.Works.GetWork(ctx, workID)
		if err != nil {
			return err
		}
		gate, err := services.AuthorizeWorkAction(action, work, callerID)
		if err != nil {
			return err
		}
		if precheck != nil {
			if err := precheck(work); err != nil {
				return err
			}
		}

		now := resolveNow(u.Clock)
		if !gate.RequiresConsensus {
			return approve(ctx, work, now)
		}

		tally, err := services.ResolveRound(work, callerID)
		switch {
		case errors.Is(err, domainerrors.ErrConsensusRejected):
			services.CloseRound(&work)
			if err := u.Works.SaveWork(ctx, work); err != nil {
				return err
			}
			rejected = true
			return application.AppendEvent(ctx, u.Outbox, u.IDGenerator, workEvent(contractsv1.EventWorkRoundRejected, work, now, map[string]any{
				"action":   string(action),
				"agree":    tally.Agree,
				"disagree": tally.Disagree,
			}))
		case err != nil:
			return err
		}
		return approve(ctx, work, now)
	})
	return rejected, err
}

func (u GovernanceUseCase) voteFee() int64 {
	if u.VoteFee <= 0 {
		return defaultVoteFee
	}
	return u.VoteFee
}
