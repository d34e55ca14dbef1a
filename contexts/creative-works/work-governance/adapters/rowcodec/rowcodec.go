// Package rowcodec flattens work-governance entities into relational columns.
// Nested collections are stored as JSON documents.
package rowcodec

import (
	"encoding/json"
	"time"

	"atelier/contexts/creative-works/work-governance/domain/entities"
)

type AuthorColumns struct {
	AuthorID   string
	Name       string
	Age        int
	RatedWorks string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type WorkColumns struct {
	WorkID          string
	AuthorID        string
	Position        int
	DisplayID       string
	Title           string
	Content         string
	AuthorSnapshot  string
	Fee             int64
	Collaborators   string
	Ratings         string
	AverageRating   *float64
	PublishedAt     time.Time
	UpdatedAt       time.Time
	Reports         string
	Ratios          string
	AuthorizedUsers string
	Votes           string
}

type ratedWorkDoc struct {
	WorkID  string    `json:"work_id"`
	Rating  int       `json:"rating"`
	RatedAt time.Time `json:"rated_at"`
}

type snapshotDoc struct {
	AuthorID   string    `json:"author_id"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	CapturedAt time.Time `json:"captured_at"`
}

type ratingDoc struct {
	VoterID string `json:"voter_id"`
	Value   int    `json:"value"`
}

type reportDoc struct {
	ReporterID string    `json:"reporter_id"`
	Reason     string    `json:"reason"`
	ReportedAt time.Time `json:"reported_at"`
}

type ratioDoc struct {
	AccountID  string `json:"account_id"`
	Percentage int    `json:"percentage"`
}

type voteDoc struct {
	VoterID  string    `json:"voter_id"`
	Decision bool      `json:"decision"`
	CastAt   time.Time `json:"cast_at"`
}

func EncodeAuthor(author entities.Author) (AuthorColumns, error) {
	rated := make([]ratedWorkDoc, 0, len(author.RatedWorks))
	for _, item := range author.RatedWorks {
		rated = append(rated, ratedWorkDoc{WorkID: item.WorkID, Rating: item.Rating, RatedAt: item.RatedAt.UTC()})
	}
	ratedJSON, err := encode(rated)
	if err != nil {
		return AuthorColumns{}, err
	}
	return AuthorColumns{
		AuthorID:   author.AuthorID,
		Name:       author.Name,
		Age:        author.Age,
		RatedWorks: ratedJSON,
		CreatedAt:  author.CreatedAt.UTC(),
		UpdatedAt:  author.UpdatedAt.UTC(),
	}, nil
}

func DecodeAuthor(cols AuthorColumns) (entities.Author, error) {
	var rated []ratedWorkDoc
	if err := decode(cols.RatedWorks, &rated); err != nil {
		return entities.Author{}, err
	}
	author := entities.Author{
		AuthorID:   cols.AuthorID,
		Name:       cols.Name,
		Age:        cols.Age,
		RatedWorks: make([]entities.RatedWork, 0, len(rated)),
		CreatedAt:  cols.CreatedAt.UTC(),
		UpdatedAt:  cols.UpdatedAt.UTC(),
	}
	for _, item := range rated {
		author.RatedWorks = append(author.RatedWorks, entities.RatedWork{WorkID: item.WorkID, Rating: item.Rating, RatedAt: item.RatedAt.UTC()})
	}
	return author, nil
}

// EncodeWork leaves Position zero; the repository assigns it.
func EncodeWork(work entities.Work) (WorkColumns, error) {
	cols := WorkColumns{
		WorkID:        work.WorkID,
		AuthorID:      work.OwnerID(),
		DisplayID:     work.DisplayID,
		Title:         work.Title,
		Content:       work.Content,
		Fee:           work.Fee,
		AverageRating: work.AverageRating,
		PublishedAt:   work.PublishedAt.UTC(),
		UpdatedAt:     work.UpdatedAt.UTC(),
	}

	ratings := make([]ratingDoc, 0, len(work.Ratings))
	for _, item := range work.Ratings {
		ratings = append(ratings, ratingDoc{VoterID: item.VoterID, Value: item.Value})
	}
	reports := make([]reportDoc, 0, len(work.Reports))
	for _, item := range work.Reports {
		reports = append(reports, reportDoc{ReporterID: item.ReporterID, Reason: item.Reason, ReportedAt: item.ReportedAt.UTC()})
	}
	var ratios []ratioDoc
	if work.Ratios != nil {
		ratios = make([]ratioDoc, 0, len(work.Ratios))
		for _, item := range work.Ratios {
			ratios = append(ratios, ratioDoc{AccountID: item.AccountID, Percentage: item.Percentage})
		}
	}
	var votes []voteDoc
	for _, item := range work.Votes {
		votes = append(votes, voteDoc{VoterID: item.VoterID, Decision: item.Decision, CastAt: item.CastAt.UTC()})
	}

	fields := []struct {
		dst   *string
		value any
	}{
		{&cols.AuthorSnapshot, snapshotDoc{
			AuthorID:   work.Author.AuthorID,
			Name:       work.Author.Name,
			Age:        work.Author.Age,
			CapturedAt: work.Author.CapturedAt.UTC(),
		}},
		{&cols.Collaborators, nonNil(work.Collaborators)},
		{&cols.Ratings, ratings},
		{&cols.Reports, reports},
		{&cols.Ratios, ratios},
		{&cols.AuthorizedUsers, nonNil(work.AuthorizedUsers)},
		{&cols.Votes, votes},
	}
	for _, field := range fields {
		encoded, err := encode(field.value)
		if err != nil {
			return WorkColumns{}, err
		}
		*field.dst = encoded
	}
	return cols, nil
}

func DecodeWork(cols WorkColumns) (entities.Work, error) {
	var (
		snapshot snapshotDoc
		ratings  []ratingDoc
		reports  []reportDoc
		ratios   []ratioDoc
		votes    []voteDoc
		work     = entities.Work{
			WorkID:      cols.WorkID,
			DisplayID:   cols.DisplayID,
			Title:       cols.Title,
			Content:     cols.Content,
			Fee:         cols.Fee,
			PublishedAt: cols.PublishedAt.UTC(),
			UpdatedAt:   cols.UpdatedAt.UTC(),
		}
	)
	if cols.AverageRating != nil {
		avg := *cols.AverageRating
		work.AverageRating = &avg
	}

	fields := []struct {
		raw string
		dst any
	}{
		{cols.AuthorSnapshot, &snapshot},
		{cols.Collaborators, &work.Collaborators},
		{cols.Ratings, &ratings},
		{cols.Reports, &reports},
		{cols.Ratios, &ratios},
		{cols.AuthorizedUsers, &work.AuthorizedUsers},
		{cols.Votes, &votes},
	}
	for _, field := range fields {
		if err := decode(field.raw, field.dst); err != nil {
			return entities.Work{}, err
		}
	}

	work.Author = entities.AuthorSnapshot{
		AuthorID:   snapshot.AuthorID,
		Name:       snapshot.Name,
		Age:        snapshot.Age,
		CapturedAt: snapshot.CapturedAt.UTC(),
	}
	work.Collaborators = nonNil(work.Collaborators)
	work.AuthorizedUsers = nonNil(work.AuthorizedUsers)
	work.Ratings = make([]entities.Rating, 0, len(ratings))
	for _, item := range ratings {
		work.Ratings = append(work.Ratings, entities.Rating{VoterID: item.VoterID, Value: item.Value})
	}
	for _, item := range reports {
		work.Reports = append(work.Reports, entities.Report{ReporterID: item.ReporterID, Reason: item.Reason, ReportedAt: item.ReportedAt.UTC()})
	}
	if ratios != nil {
		work.Ratios = make([]entities.Ratio, 0, len(ratios))
		for _, item := range ratios {
			work.Ratios = append(work.Ratios, entities.Ratio{AccountID: item.AccountID, Percentage: item.Percentage})
		}
	}
	for _, item := range votes {
		work.Votes = append(work.Votes, entities.Vote{VoterID: item.VoterID, Decision: item.Decision, CastAt: item.CastAt.UTC()})
	}
	return work, nil
}

func encode(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decode(raw string, dst any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
