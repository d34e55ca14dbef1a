package services

import (
	"strings"

	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
)

// ValidateCollaborators rejects blank, duplicated or author-owned identities.
func ValidateCollaborators(authorID string, collaborators []string) error {
	seen := make(map[string]struct{}, len(collaborators))
	for _, accountID := range collaborators {
		if strings.TrimSpace(accountID) == "" || accountID == authorID {
			return domainerrors.ErrInvalidInput
		}
		if _, dup := seen[accountID]; dup {
			return domainerrors.ErrInvalidInput
		}
		seen[accountID] = struct{}{}
	}
	return nil
}

// AddCollaborators extends the collaborator list. The whole proposal is
// refused when any identity is already a collaborator.
func AddCollaborators(work *entities.Work, proposed []string) error {
	if len(proposed) == 0 {
		return domainerrors.ErrInvalidInput
	}
	if err := ValidateCollaborators(work.OwnerID(), proposed); err != nil {
		return err
	}
	for _, accountID := range proposed {
		if work.IsCollaborator(accountID) {
			return domainerrors.ErrCollaboratorExists
		}
	}
	work.Collaborators = append(work.Collaborators, proposed...)
	return nil
}
