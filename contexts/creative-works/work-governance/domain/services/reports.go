package services

import (
	"strings"
	"time"

	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
)

// UpsertReport keeps one report per reporter: a repeat report overwrites the
// reason and timestamp. It returns true when a new report was appended.
func UpsertReport(work *entities.Work, reporterID string, reason string, now time.Time) (bool, error) {
	reason = strings.TrimSpace(reason)
	if strings.TrimSpace(reporterID) == "" || reason == "" {
		return false, domainerrors.ErrInvalidInput
	}

	for i := range work.Reports {
		if work.Reports[i].ReporterID == reporterID {
			work.Reports[i].Reason = reason
			work.Reports[i].ReportedAt = now.UTC()
			return false, nil
		}
	}
	work.Reports = append(work.Reports, entities.Report{
		ReporterID: reporterID,
		Reason:     reason,
		ReportedAt: now.UTC(),
	})
	return true, nil
}
