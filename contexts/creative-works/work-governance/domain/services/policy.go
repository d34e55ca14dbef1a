package services

import (
	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
)

type Action string

const (
	ActionUpdateAuthor    Action = "update_author"
	ActionDeleteAuthor    Action = "delete_author"
	ActionUpdateWork      Action = "update_work"
	ActionDeleteWork      Action = "delete_work"
	ActionAddCollaborator Action = "add_collaborator"
	ActionVote            Action = "vote"
)

type Eligibility int

const (
	// EligibleOwner admits only the account that owns the record: the
	// author of a work, or the account behind an author profile.
	EligibleOwner Eligibility = iota
	EligibleMember
)

type Gate struct {
	Eligibility       Eligibility
	RequiresConsensus bool
}

// Policy is the gating table for governance actions. Author deletion stays
// an unconditional owner action while work deletion needs a resolved round.
var Policy = map[Action]Gate{
	ActionUpdateAuthor:    {Eligibility: EligibleOwner},
	ActionDeleteAuthor:    {Eligibility: EligibleOwner},
	ActionUpdateWork:      {Eligibility: EligibleOwner},
	ActionDeleteWork:      {Eligibility: EligibleOwner, RequiresConsensus: true},
	ActionAddCollaborator: {Eligibility: EligibleMember, RequiresConsensus: true},
	ActionVote:            {Eligibility: EligibleMember},
}

func GateFor(action Action) Gate {
	gate, ok := Policy[action]
	if !ok {
		return Gate{Eligibility: EligibleOwner, RequiresConsensus: true}
	}
	return gate
}

// AuthorizeWorkAction checks the caller against the action's eligibility on
// a work. Consensus, when required, is checked separately by the caller.
func AuthorizeWorkAction(action Action, work entities.Work, callerID string) (Gate, error) {
	gate := GateFor(action)
	switch gate.Eligibility {
	case EligibleMember:
		if !work.IsMember(callerID) {
			return gate, domainerrors.ErrUnauthorized
		}
	default:
		if !work.IsAuthor(callerID) {
			return gate, domainerrors.ErrUnauthorized
		}
	}
	return gate, nil
}

func AuthorizeAuthorAction(action Action, authorID string, callerID string) (Gate, error) {
	gate := GateFor(action)
	if callerID == "" || authorID != callerID {
		return gate, domainerrors.ErrUnauthorized
	}
	return gate, nil
}
