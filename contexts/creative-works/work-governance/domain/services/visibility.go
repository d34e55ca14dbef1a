package services

import "atelier/contexts/creative-works/work-governance/domain/entities"

const InvisibleContent = "Invisible content"

// TierFor classifies a caller against a stored work.
func TierFor(work entities.Work, callerID string) entities.Visibility {
	switch {
	case work.IsMember(callerID):
		return entities.VisibilityFull
	case work.IsAuthorizedViewer(callerID):
		return entities.VisibilityAuthorized
	default:
		return entities.VisibilityPublic
	}
}

// Project is the single redaction path for every work that leaves the
// service, whether fetched alone or in a listing. A view that was already
// projected keeps its tier, which makes Project idempotent.
func Project(work entities.Work, callerID string) entities.Work {
	tier := work.Visibility
	if tier == entities.VisibilityStored {
		tier = TierFor(work, callerID)
	}

	view := work.Clone()
	view.Visibility = tier
	switch tier {
	case entities.VisibilityFull:
		return view
	case entities.VisibilityAuthorized:
		stripGovernance(&view)
	default:
		stripGovernance(&view)
		view.Content = InvisibleContent
	}
	return view
}

func ProjectAll(works []entities.Work, callerID string) []entities.Work {
	out := make([]entities.Work, 0, len(works))
	for _, work := range works {
		out = append(out, Project(work, callerID))
	}
	return out
}

func stripGovernance(view *entities.Work) {
	view.Reports = nil
	view.Ratios = nil
	view.Votes = nil
	view.AuthorizedUsers = []string{}
}
