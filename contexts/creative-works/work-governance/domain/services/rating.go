package services

import (
	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
)

const (
	MinRating = 0
	MaxRating = 5
)

// ApplyRating records, replaces or retracts the voter's rating and refreshes
// the cached average. It reports whether the ratings ledger changed; a
// retraction from a voter with no rating is accepted and changes nothing.
func ApplyRating(work *entities.Work, voterID string, rating int) (bool, error) {
	if rating < MinRating || rating > MaxRating {
		return false, domainerrors.ErrRatingOutOfRange
	}

	changed := false
	index := -1
	for i, existing := range work.Ratings {
		if existing.VoterID == voterID {
			index = i
			break
		}
	}

	switch {
	case index >= 0 && rating == 0:
		work.Ratings = append(work.Ratings[:index], work.Ratings[index+1:]...)
		changed = true
	case index >= 0:
		work.Ratings[index].Value = rating
		changed = true
	case rating > 0:
		work.Ratings = append(work.Ratings, entities.Rating{VoterID: voterID, Value: rating})
		changed = true
	}

	work.AverageRating = AverageRating(work.Ratings)
	return changed, nil
}

// AverageRating returns nil for an empty ledger.
func AverageRating(ratings []entities.Rating) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	total := 0
	for _, rating := range ratings {
		total += rating.Value
	}
	avg := float64(total) / float64(len(ratings))
	return &avg
}

func ValidAverageRating(value float64) bool {
	return value >= MinRating && value <= MaxRating
}
