package commands

import (
	"context"
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

type PayoutStatus string

const (
	PayoutRequested PayoutStatus = "requested"
	PayoutSkipped   PayoutStatus = "skipped"
	PayoutFailed    PayoutStatus = "failed"
)

type DistributeFundsCommand struct {
	CallerID       string
	WorkID         string
	TotalAmount    int64
	AttachedAmount int64
	Ratios         []entities.Ratio
	IdempotencyKey string
}

type PayoutResult struct {
	AccountID  string       `json:"account_id"`
	Percentage int          `json:"percentage"`
	Amount     int64        `json:"amount"`
	TransferID string       `json:"transfer_id,omitempty"`
	Status     PayoutStatus `json:"status"`
	Error      string       `json:"error,omitempty"`
}

type DistributionResult struct {
	WorkID      string         `json:"work_id"`
	Total       int64          `json:"total"`
	Distributed int64          `json:"distributed"`
	Dust        int64          `json:"dust"`
	EqualSplit  bool           `json:"equal_split"`
	Payouts     []PayoutResult `json:"payouts"`
	Replayed    bool           `json:"-"`
}

// Failed reports how many recipients did not receive their transfer.
func (r DistributionResult) Failed() int {
	count := 0
	for _, payout := range r.Payouts {
		if payout.Status == PayoutFailed {
			count++
		}
	}
	return count
}

type GetAccessCommand struct {
	CallerID       string
	WorkID         string
	AttachedAmount int64
	IdempotencyKey string
}

type AccessResult struct {
	WorkID           string              `json:"work_id"`
	Granted          bool                `json:"granted"`
	AlreadyHadAccess bool                `json:"already_had_access"`
	Charged          int64               `json:"charged"`
	Distribution     *DistributionResult `json:"distribution,omitempty"`
	Replayed         bool                `json:"-"`
}

// FundsUseCase splits payments between a work's participants and sells
// access to a work's content.
type FundsUseCase struct {
	Works          ports.WorkRepository
	Tx             ports.TxManager
	Outbox         ports.OutboxWriter
	Transfers      ports.ValueTransfer
	Idempotency    ports.IdempotencyStore
	IDGenerator    ports.IDGenerator
	Clock          ports.Clock
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// DistributeFunds splits TotalAmount by the given ratios, or equally between
// author and collaborators when Ratios is nil. Transfers are independent: a
// failed recipient is reported in the result and the others still run.
func (u FundsUseCase) DistributeFunds(ctx context.Context, cmd DistributeFundsCommand) (DistributionResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := requireCaller(cmd.CallerID); err != nil {
		return DistributionResult{}, err
	}
	if err := requireIdempotency(cmd.IdempotencyKey); err != nil {
		return DistributionResult{}, err
	}
	if cmd.AttachedAmount != cmd.TotalAmount {
		return DistributionResult{}, domainerrors.ErrPaymentMismatch
	}

	var result DistributionResult
	runner := idempotentRunner{store: u.Idempotency, clock: u.Clock, ttl: u.IdempotencyTTL}
	requestHash := hashStrings("distribute", cmd.CallerID, cmd.WorkID, strconv.FormatInt(cmd.TotalAmount, 10), ratiosKey(cmd.Ratios))
	replayed, err := runner.run(ctx, cmd.IdempotencyKey, requestHash, &result, func() (any, error) {
		work, err := u.Works.GetWork(ctx, cmd.WorkID)
		if err != nil {
			return nil, err
		}
		plan, err := services.PlanDistribution(cmd.TotalAmount, work, cmd.Ratios)
		if err != nil {
			return nil, err
		}
		return u.transfer(ctx, work, plan, "distribution"), nil
	})
	if err != nil {
		logger.Warn("distribute funds failed",
			"event", "work_governance_distribute_funds_failed",
			"module", moduleName,
			"layer", "application",
			"work_id", cmd.WorkID,
			"payer_id", cmd.CallerID,
			"error", err.Error(),
		)
		return DistributionResult{}, err
	}
	result.Replayed = replayed
	return result, nil
}

// GetAccess charges the work fee and adds the payer to the authorized
// viewers. Members and existing viewers are not charged again.
func (u FundsUseCase) GetAccess(ctx context.Context, cmd GetAccessCommand) (AccessResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := requireCaller(cmd.CallerID); err != nil {
		return AccessResult{}, err
	}
	if err := requireIdempotency(cmd.IdempotencyKey); err != nil {
		return AccessResult{}, err
	}

	var result AccessResult
	runner := idempotentRunner{store: u.Idempotency, clock: u.Clock, ttl: u.IdempotencyTTL}
	requestHash := hashStrings("access", cmd.CallerID, cmd.WorkID, strconv.FormatInt(cmd.AttachedAmount, 10))
	replayed, err := runner.run(ctx, cmd.IdempotencyKey, requestHash, &result, func() (any, error) {
		return u.grantAccess(ctx, cmd)
	})
	if err != nil {
		logger.Warn("get access failed",
			"event", "work_governance_get_access_failed",
			"module", moduleName,
			"layer", "application",
			"work_id", cmd.WorkID,
			"payer_id", cmd.CallerID,
			"error", err.Error(),
		)
		return AccessResult{}, err
	}
	result.Replayed = replayed
	return result, nil
}

func (u FundsUseCase) grantAccess(ctx context.Context, cmd GetAccessCommand) (AccessResult, error) {
	var (
		granted entities.Work
		plan    services.DistributionPlan
		result  = AccessResult{WorkID: cmd.WorkID}
	)
	err := u.Tx.RunInTx(ctx, func(ctx context.Context) error {
		work, err := u.Works.GetWork(ctx, cmd.WorkID)
		if err != nil {
			return err
		}
		if work.IsMember(cmd.CallerID) || work.IsAuthorizedViewer(cmd.CallerID) {
			result.AlreadyHadAccess = true
			return nil
		}
		if cmd.AttachedAmount != work.Fee {
			return domainerrors.ErrPaymentMismatch
		}
		plan, err = services.PlanDistribution(work.Fee, work, work.Ratios)
		if err != nil {
			return err
		}

		now := resolveNow(u.Clock)
		work.AuthorizedUsers = append(work.AuthorizedUsers, cmd.CallerID)
		if err := u.Works.SaveWork(ctx, work); err != nil {
			return err
		}
		granted = work
		return application.AppendEvent(ctx, u.Outbox, u.IDGenerator, workEvent(contractsv1.EventWorkAccessGranted, work, now, map[string]any{
			"viewer_id": cmd.CallerID,
			"fee":       work.Fee,
		}))
	})
	if err != nil || result.AlreadyHadAccess {
		return result, err
	}

	distribution := u.transfer(ctx, granted, plan, "access")
	result.Granted = true
	result.Charged = granted.Fee
	result.Distribution = &distribution

	application.ResolveLogger(u.Logger).Info("work access granted",
		"event", "work_governance_access_granted",
		"module", moduleName,
		"layer", "application",
		"work_id", granted.WorkID,
		"viewer_id", cmd.CallerID,
		"fee", granted.Fee,
		"failed_transfers", distribution.Failed(),
	)
	return result, nil
}

// transfer issues one transfer per recipient with a positive amount. It
// never aborts on a failed recipient.
func (u FundsUseCase) transfer(ctx context.Context, work entities.Work, plan services.DistributionPlan, reason string) DistributionResult {
	logger := application.ResolveLogger(u.Logger)
	result := DistributionResult{
		WorkID:      work.WorkID,
		Total:       plan.Total,
		Distributed: plan.Distributed,
		Dust:        plan.Dust,
		EqualSplit:  plan.EqualSplit,
		Payouts:     make([]PayoutResult, 0, len(plan.Payouts)),
	}

	now := resolveNow(u.Clock)
	for _, payout := range plan.Payouts {
		item := PayoutResult{
			AccountID:  payout.AccountID,
			Percentage: payout.Percentage,
			Amount:     payout.Amount,
			Status:     PayoutRequested,
		}
		if payout.Amount <= 0 {
			item.Status = PayoutSkipped
			result.Payouts = append(result.Payouts, item)
			continue
		}

		transferID, err := u.IDGenerator.NewID(ctx)
		if err == nil {
			item.TransferID = transferID
			err = u.Transfers.Transfer(ctx, ports.TransferRequest{
				TransferID:  transferID,
				WorkID:      work.WorkID,
				RecipientID: payout.AccountID,
				Amount:      payout.Amount,
				Reason:      reason,
				RequestedAt: now,
			})
		}
		if err != nil {
			item.Status = PayoutFailed
			item.Error = err.Error()
			logger.Error("value transfer failed",
				"event", "work_governance_transfer_failed",
				"module", moduleName,
				"layer", "application",
				"work_id", work.WorkID,
				"recipient_id", payout.AccountID,
				"amount", payout.Amount,
				"error", err.Error(),
			)
		}
		result.Payouts = append(result.Payouts, item)
	}

	if result.Failed() > 0 {
		result.Distributed = 0
		for _, payout := range result.Payouts {
			if payout.Status == PayoutRequested {
				result.Distributed += payout.Amount
			}
		}
	}
	logger.Info("funds distributed",
		"event", "work_governance_funds_distributed",
		"module", moduleName,
		"layer", "application",
		"work_id", work.WorkID,
		"total", plan.Total,
		"distributed", result.Distributed,
		"dust", plan.Dust,
		"recipients", len(plan.Payouts),
	)
	return result
}

func ratiosKey(ratios []entities.Ratio) string {
	if ratios == nil {
		return "equal"
	}
	parts := make([]string, 0, len(ratios))
	for _, ratio := range ratios {
		parts = append(parts, ratio.AccountID+"="+strconv.Itoa(ratio.Percentage))
	}
	return strings.Join(parts, ",")
}
