package services

import (
	"testing"
	"time"

	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertReportKeepsOnePerReporter(t *testing.T) {
	work := entities.Work{WorkID: "work-1"}
	first := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	added, err := UpsertReport(&work, "erin", "copied chorus", first)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = UpsertReport(&work, "frank", "stolen melody", first)
	require.NoError(t, err)
	assert.True(t, added)

	later := first.Add(time.Hour)
	added, err = UpsertReport(&work, "erin", "  copied bridge ", later)
	require.NoError(t, err)
	assert.False(t, added)

	require.Len(t, work.Reports, 2)
	assert.Equal(t, entities.Report{ReporterID: "erin", Reason: "copied bridge", ReportedAt: later}, work.Reports[0])
	assert.Equal(t, "frank", work.Reports[1].ReporterID)
}

func TestUpsertReportRejectsBlankInput(t *testing.T) {
	work := entities.Work{WorkID: "work-1"}

	_, err := UpsertReport(&work, "erin", "   ", time.Now())
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	_, err = UpsertReport(&work, "", "reason", time.Now())
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
	assert.Empty(t, work.Reports)
}
