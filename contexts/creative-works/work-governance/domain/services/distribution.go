package services

import (
	"math"
	"strings"

	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
)

const FullShare = 100

type Payout struct {
	AccountID  string
	Percentage int
	Amount     int64
}

// DistributionPlan is the per-recipient split of a payment. Dust is the
// truncated remainder that no recipient receives.
type DistributionPlan struct {
	Total       int64
	Payouts     []Payout
	Distributed int64
	Dust        int64
	EqualSplit  bool
}

// EqualSplit assigns 100/(1+collaborators) percent to the author and to each
// collaborator. Integer division may leave part of the 100 unassigned.
func EqualSplit(work entities.Work) []entities.Ratio {
	participants := work.Participants()
	share := FullShare / len(participants)
	out := make([]entities.Ratio, 0, len(participants))
	for _, accountID := range participants {
		out = append(out, entities.Ratio{AccountID: accountID, Percentage: share})
	}
	return out
}

// ValidateRatios accepts nil (meaning "use the equal split") and otherwise
// requires unique non-empty accounts whose percentages sum to exactly 100.
func ValidateRatios(ratios []entities.Ratio) error {
	if ratios == nil {
		return nil
	}
	if len(ratios) == 0 {
		return domainerrors.ErrInvalidRatios
	}
	seen := make(map[string]struct{}, len(ratios))
	sum := 0
	for _, ratio := range ratios {
		if strings.TrimSpace(ratio.AccountID) == "" || ratio.Percentage < 0 || ratio.Percentage > FullShare {
			return domainerrors.ErrInvalidRatios
		}
		if _, dup := seen[ratio.AccountID]; dup {
			return domainerrors.ErrInvalidRatios
		}
		seen[ratio.AccountID] = struct{}{}
		sum += ratio.Percentage
	}
	if sum != FullShare {
		return domainerrors.ErrInvalidRatios
	}
	return nil
}

// PlanDistribution splits total by the given ratios, or by the equal split of
// the work when ratios is nil.
func PlanDistribution(total int64, work entities.Work, ratios []entities.Ratio) (DistributionPlan, error) {
	if total < 0 || total > math.MaxInt64/FullShare {
		return DistributionPlan{}, domainerrors.ErrInvalidInput
	}

	plan := DistributionPlan{Total: total}
	if ratios == nil {
		ratios = EqualSplit(work)
		plan.EqualSplit = true
	} else if err := ValidateRatios(ratios); err != nil {
		return DistributionPlan{}, err
	}

	plan.Payouts = make([]Payout, 0, len(ratios))
	for _, ratio := range ratios {
		amount := total * int64(ratio.Percentage) / FullShare
		plan.Payouts = append(plan.Payouts, Payout{
			AccountID:  ratio.AccountID,
			Percentage: ratio.Percentage,
			Amount:     amount,
		})
		plan.Distributed += amount
	}
	plan.Dust = total - plan.Distributed
	return plan, nil
}
