package services

import (
	"time"

	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
)

// Tally is the evaluated state of a work's open voting round from the point
// of view of the caller trying to resolve it.
type Tally struct {
	TotalPeople   int
	TotalVotes    int
	RequiredVotes int
	Agree         int
	Disagree      int
	CallerVoted   bool
}

// QuorumMet requires the caller's own vote. Groups of at most two people need
// nothing else; larger groups need floor(75%) of the non-initiator members.
func (t Tally) QuorumMet() bool {
	return t.CallerVoted && t.TotalVotes >= t.RequiredVotes
}

func (t Tally) Approved() bool {
	return t.Agree > t.Disagree
}

func TallyRound(work entities.Work, callerID string) (Tally, error) {
	if !work.HasOpenRound() {
		return Tally{}, domainerrors.ErrNoOpenRound
	}

	tally := Tally{
		TotalPeople: 1 + len(work.Collaborators),
		TotalVotes:  len(work.Votes),
	}
	tally.RequiredVotes = requiredVotes(tally.TotalPeople)
	for _, vote := range work.Votes {
		if vote.Decision {
			tally.Agree++
		} else {
			tally.Disagree++
		}
		if vote.VoterID == callerID {
			tally.CallerVoted = true
		}
	}
	return tally, nil
}

// ResolveRound returns nil only when the round approves the pending action.
func ResolveRound(work entities.Work, callerID string) (Tally, error) {
	tally, err := TallyRound(work, callerID)
	if err != nil {
		return Tally{}, err
	}
	if !tally.QuorumMet() {
		return tally, domainerrors.ErrQuorumNotMet
	}
	if !tally.Approved() {
		return tally, domainerrors.ErrConsensusRejected
	}
	return tally, nil
}

// CastVote appends the caller's decision, opening a round when none is open.
func CastVote(work *entities.Work, voterID string, decision bool, now time.Time) error {
	if work.HasVoted(voterID) {
		return domainerrors.ErrAlreadyVoted
	}
	work.Votes = append(work.Votes, entities.Vote{
		VoterID:  voterID,
		Decision: decision,
		CastAt:   now.UTC(),
	})
	return nil
}

func CloseRound(work *entities.Work) {
	work.Votes = nil
}

func requiredVotes(totalPeople int) int {
	if totalPeople <= 2 {
		return 1
	}
	return (totalPeople - 1) * 3 / 4
}
