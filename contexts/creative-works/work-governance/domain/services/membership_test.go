package services

import (
	"testing"

	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCollaboratorsRejectsWholeProposalOnOverlap(t *testing.T) {
	work := workWithCollaborators("bob")

	err := AddCollaborators(&work, []string{"carol", "bob"})
	require.ErrorIs(t, err, domainerrors.ErrCollaboratorExists)
	assert.Equal(t, []string{"bob"}, work.Collaborators)

	require.NoError(t, AddCollaborators(&work, []string{"carol", "dave"}))
	assert.Equal(t, []string{"bob", "carol", "dave"}, work.Collaborators)
}

func TestAddCollaboratorsValidation(t *testing.T) {
	work := workWithCollaborators()
	require.ErrorIs(t, AddCollaborators(&work, nil), domainerrors.ErrInvalidInput)
	require.ErrorIs(t, AddCollaborators(&work, []string{"alice"}), domainerrors.ErrInvalidInput)
	require.ErrorIs(t, AddCollaborators(&work, []string{"x", "x"}), domainerrors.ErrInvalidInput)
}
