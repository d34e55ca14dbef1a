package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "atelier/contexts/creative-works/work-governance/application"
	"atelier/contexts/creative-works/work-governance/application/commands"
	"atelier/contexts/creative-works/work-governance/application/queries"
	"atelier/contexts/creative-works/work-governance/domain/entities"
	httptransport "atelier/contexts/creative-works/work-governance/transport/http"
)

const timestampLayout = time.RFC3339

type Handler struct {
	Authors     commands.AuthorUseCase
	Works       commands.WorkUseCase
	Governance  commands.GovernanceUseCase
	Engagement  commands.EngagementUseCase
	Funds       commands.FundsUseCase
	WorkReads   queries.WorkQueries
	AuthorReads queries.AuthorQueries
	Logger      *slog.Logger
}

// CreateAuthorHandler godoc
// @Summary Register the caller as an author
// @Tags work-governance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.CreateAuthorRequest true "Author payload"
// @Success 201 {object} httptransport.AuthorResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/authors [post]
func (h Handler) CreateAuthorHandler(ctx context.Context, callerID string, req httptransport.CreateAuthorRequest) (httptransport.AuthorResponse, error) {
	author, err := h.Authors.CreateAuthor(ctx, commands.CreateAuthorCommand{
		CallerID: callerID,
		Name:     req.Name,
		Age:      req.Age,
	})
	if err != nil {
		return httptransport.AuthorResponse{}, err
	}
	return httptransport.AuthorResponse{Item: mapAuthor(author)}, nil
}

// UpdateAuthorHandler godoc
// @Summary Update the caller's author record
// @Tags work-governance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.UpdateAuthorRequest true "Fields to change"
// @Success 200 {object} httptransport.AuthorResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/authors/me [patch]
func (h Handler) UpdateAuthorHandler(ctx context.Context, callerID string, req httptransport.UpdateAuthorRequest) (httptransport.AuthorResponse, error) {
	author, err := h.Authors.UpdateAuthor(ctx, commands.UpdateAuthorCommand{
		CallerID: callerID,
		Name:     req.Name,
		Age:      req.Age,
	})
	if err != nil {
		return httptransport.AuthorResponse{}, err
	}
	return httptransport.AuthorResponse{Item: mapAuthor(author)}, nil
}

// DeleteAuthorHandler godoc
// @Summary Delete an author record
// @Description Only the account itself may delete its record. Its works stay listed.
// @Tags work-governance
// @Produce json
// @Security BearerAuth
// @Param author_id path string true "Author id"
// @Success 200 {object} httptransport.ActionResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/authors/{author_id} [delete]
func (h Handler) DeleteAuthorHandler(ctx context.Context, callerID string, authorID string) (httptransport.ActionResponse, error) {
	ok, err := h.Authors.DeleteAuthor(ctx, commands.DeleteAuthorCommand{
		CallerID: callerID,
		AuthorID: authorID,
	})
	if err != nil {
		return httptransport.ActionResponse{}, err
	}
	return httptransport.ActionResponse{OK: ok}, nil
}

// GetAuthorHandler godoc
// @Summary Get one author
// @Tags work-governance
// @Produce json
// @Param author_id path string true "Author id"
// @Success 200 {object} httptransport.AuthorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/authors/{author_id} [get]
func (h Handler) GetAuthorHandler(ctx context.Context, authorID string) (httptransport.AuthorResponse, error) {
	author, err := h.AuthorReads.GetAuthor(ctx, authorID)
	if err != nil {
		return httptransport.AuthorResponse{}, err
	}
	return httptransport.AuthorResponse{Item: mapAuthor(author)}, nil
}

// ListAuthorsHandler godoc
// @Summary List every registered author
// @Tags work-governance
// @Produce json
// @Success 200 {object} httptransport.ListAuthorsResponse
// @Router /v1/authors [get]
func (h Handler) ListAuthorsHandler(ctx context.Context) (httptransport.ListAuthorsResponse, error) {
	authors, err := h.AuthorReads.ListAuthors(ctx)
	if err != nil {
		return httptransport.ListAuthorsResponse{}, err
	}
	items := make([]httptransport.AuthorDTO, 0, len(authors))
	for _, author := range authors {
		items = append(items, mapAuthor(author))
	}
	return httptransport.ListAuthorsResponse{Items: items}, nil
}

// CreateWorkHandler godoc
// @Summary Publish a work
// @Description Omitting ratios splits funds equally between author and collaborators.
// @Tags work-governance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body httptransport.CreateWorkRequest true "Work payload"
// @Success 201 {object} httptransport.WorkResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/works [post]
func (h Handler) CreateWorkHandler(ctx context.Context, callerID string, req httptransport.CreateWorkRequest) (httptransport.WorkResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("create work request received",
		"event", "http_create_work_received",
		"module", "creative-works/work-governance",
		"layer", "transport",
		"caller_id", callerID,
	)

	work, err := h.Works.CreateWork(ctx, commands.CreateWorkCommand{
		CallerID:      callerID,
		Title:         req.Title,
		Content:       req.Content,
		Collaborators: req.Collaborators,
		Fee:           req.Fee,
		Ratios:        mapRatiosIn(req.Ratios),
	})
	if err != nil {
		return httptransport.WorkResponse{}, err
	}
	return httptransport.WorkResponse{Item: mapWork(work)}, nil
}

// UpdateWorkHandler godoc
// @Summary Update a work
// @Description Author only. Omitted fields are unchanged.
// @Tags work-governance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param work_id path string true "Work id"
// @Param request body httptransport.UpdateWorkRequest true "Fields to change"
// @Success 200 {object} httptransport.WorkResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/works/{work_id} [patch]
func (h Handler) UpdateWorkHandler(ctx context.Context, callerID string, workID string, req httptransport.UpdateWorkRequest) (httptransport.WorkResponse, error) {
	work, err := h.Works.UpdateWork(ctx, commands.UpdateWorkCommand{
		CallerID:      callerID,
		WorkID:        workID,
		Title:         req.Title,
		Content:       req.Content,
		Fee:           req.Fee,
		AverageRating: req.AverageRating,
		Ratios:        mapRatiosIn(req.Ratios),
	})
	if err != nil {
		return httptransport.WorkResponse{}, err
	}
	return httptransport.WorkResponse{Item: mapWork(work)}, nil
}

// DeleteWorkHandler godoc
// @Summary Delete a work
// @Description Requires an approving vote round among the author's group.
// @Tags work-governance
// @Produce json
// @Security BearerAuth
// @Param work_id path string true "Work id"
// @Success 200 {object} httptransport.ActionResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/works/{work_id} [delete]
func (h Handler) DeleteWorkHandler(ctx context.Context, callerID string, workID string) (httptransport.ActionResponse, error) {
	ok, err := h.Governance.DeleteWork(ctx, commands.DeleteWorkCommand{
		CallerID: callerID,
		WorkID:   workID,
	})
	if err != nil {
		return httptransport.ActionResponse{}, err
	}
	return httptransport.ActionResponse{WorkID: workID, OK: ok}, nil
}

// GetWorkHandler godoc
// @Summary Get one work
// @Description Content and governance fields depend on the caller's relation to the work.
// @Tags work-governance
// @Produce json
// @Param work_id path string true "Work id"
// @Success 200 {object} httptransport.WorkResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/works/{work_id} [get]
func (h Handler) GetWorkHandler(ctx context.Context, callerID string, workID string) (httptransport.WorkResponse, error) {
	work, err := h.WorkReads.GetWork(ctx, queries.GetWorkQuery{
		CallerID: callerID,
		WorkID:   workID,
	})
	if err != nil {
		return httptransport.WorkResponse{}, err
	}
	return httptransport.WorkResponse{Item: mapWork(work)}, nil
}

// ListWorksByAuthorHandler godoc
// @Summary List an author's works
// @Tags work-governance
// @Produce json
// @Param author_id path string true "Author id"
// @Success 200 {object} httptransport.ListWorksResponse
// @Router /v1/authors/{author_id}/works [get]
func (h Handler) ListWorksByAuthorHandler(ctx context.Context, callerID string, authorID string) (httptransport.ListWorksResponse, error) {
	works, err := h.WorkReads.ListWorksByAuthor(ctx, queries.ListWorksByAuthorQuery{
		CallerID: callerID,
		AuthorID: authorID,
	})
	if err != nil {
		return httptransport.ListWorksResponse{}, err
	}
	return httptransport.ListWorksResponse{Items: mapWorks(works)}, nil
}

// ListWorksHandler godoc
// @Summary List every work
// @Tags work-governance
// @Produce json
// @Success 200 {object} httptransport.ListWorksResponse
// @Router /v1/works [get]
func (h Handler) ListWorksHandler(ctx context.Context, callerID string) (httptransport.ListWorksResponse, error) {
	works, err := h.WorkReads.ListWorks(ctx, callerID)
	if err != nil {
		return httptransport.ListWorksResponse{}, err
	}
	return httptransport.ListWorksResponse{Items: mapWorks(works)}, nil
}

// RateWorkHandler godoc
// @Summary Rate a work from 0 to 5
// @Description A rating of 0 withdraws the caller's earlier rating.
// @Tags work-governance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param work_id path string true "Work id"
// @Param request body httptransport.RateWorkRequest true "Rating"
// @Success 200 {object} httptransport.RateWorkResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/works/{work_id}/ratings [post]
func (h Handler) RateWorkHandler(ctx context.Context, callerID string, workID string, req httptransport.RateWorkRequest) (httptransport.RateWorkResponse, error) {
	result, err := h.Engagement.RateWork(ctx, commands.RateWorkCommand{
		CallerID: callerID,
		WorkID:   workID,
		Rating:   req.Rating,
	})
	if err != nil {
		return httptransport.RateWorkResponse{}, err
	}
	return httptransport.RateWorkResponse{
		WorkID:        result.WorkID,
		Changed:       result.Changed,
		RatingCount:   result.RatingCount,
		AverageRating: result.AverageRating,
	}, nil
}

// AddCollaboratorsHandler godoc
// @Summary Add collaborators to a work
// @Description Requires an approving vote round among the author's group.
// @Tags work-governance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param work_id path string true "Work id"
// @Param request body httptransport.AddCollaboratorsRequest true "Proposed collaborators"
// @Success 200 {object} httptransport.ActionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/works/{work_id}/collaborators [post]
func (h Handler) AddCollaboratorsHandler(ctx context.Context, callerID string, workID string, req httptransport.AddCollaboratorsRequest) (httptransport.ActionResponse, error) {
	ok, err := h.Governance.AddCollaborators(ctx, commands.AddCollaboratorsCommand{
		CallerID:      callerID,
		WorkID:        workID,
		Collaborators: req.Collaborators,
	})
	if err != nil {
		return httptransport.ActionResponse{}, err
	}
	return httptransport.ActionResponse{WorkID: workID, OK: ok}, nil
}

// ReportInfringementHandler godoc
// @Summary Report a work for infringement
// @Tags work-governance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param work_id path string true "Work id"
// @Param request body httptransport.ReportInfringementRequest true "Report"
// @Success 200 {object} httptransport.ActionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/works/{work_id}/reports [post]
func (h Handler) ReportInfringementHandler(ctx context.Context, callerID string, workID string, req httptransport.ReportInfringementRequest) (httptransport.ActionResponse, error) {
	ok, err := h.Engagement.ReportInfringement(ctx, commands.ReportInfringementCommand{
		CallerID: callerID,
		WorkID:   workID,
		Reason:   req.Reason,
	})
	if err != nil {
		return httptransport.ActionResponse{}, err
	}
	return httptransport.ActionResponse{WorkID: workID, OK: ok}, nil
}

// DistributeFundsHandler godoc
// @Summary Split an attached payment between a work's participants
// @Tags work-governance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key"
// @Param X-Attached-Amount header integer true "Attached payment"
// @Param work_id path string true "Work id"
// @Param request body httptransport.DistributeFundsRequest true "Distribution"
// @Success 200 {object} httptransport.DistributionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/works/{work_id}/distributions [post]
func (h Handler) DistributeFundsHandler(
	ctx context.Context,
	callerID string,
	workID string,
	attached int64,
	idempotencyKey string,
	req httptransport.DistributeFundsRequest,
) (httptransport.DistributionResponse, error) {
	result, err := h.Funds.DistributeFunds(ctx, commands.DistributeFundsCommand{
		CallerID:       callerID,
		WorkID:         workID,
		TotalAmount:    req.TotalAmount,
		AttachedAmount: attached,
		Ratios:         mapRatiosIn(req.Ratios),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.DistributionResponse{}, err
	}
	resp := mapDistribution(result)
	resp.Replayed = result.Replayed
	return resp, nil
}

// GetAccessHandler godoc
// @Summary Buy access to a work's content
// @Tags work-governance
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key"
// @Param X-Attached-Amount header integer true "Attached payment, must equal the work fee"
// @Param work_id path string true "Work id"
// @Success 200 {object} httptransport.AccessResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/works/{work_id}/access [post]
func (h Handler) GetAccessHandler(ctx context.Context, callerID string, workID string, attached int64, idempotencyKey string) (httptransport.AccessResponse, error) {
	result, err := h.Funds.GetAccess(ctx, commands.GetAccessCommand{
		CallerID:       callerID,
		WorkID:         workID,
		AttachedAmount: attached,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.AccessResponse{}, err
	}
	resp := httptransport.AccessResponse{
		WorkID:           result.WorkID,
		Granted:          result.Granted,
		AlreadyHadAccess: result.AlreadyHadAccess,
		Charged:          result.Charged,
		Replayed:         result.Replayed,
	}
	if result.Distribution != nil {
		distribution := mapDistribution(*result.Distribution)
		resp.Distribution = &distribution
	}
	return resp, nil
}

// VoteHandler godoc
// @Summary Vote in a work's open round
// @Description Opens a round when none is open. Requires the vote fee.
// @Tags work-governance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string true "Idempotency key"
// @Param X-Attached-Amount header integer true "Attached vote fee"
// @Param work_id path string true "Work id"
// @Param request body httptransport.VoteRequest true "Decision"
// @Success 200 {object} httptransport.VoteResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/works/{work_id}/votes [post]
func (h Handler) VoteHandler(
	ctx context.Context,
	callerID string,
	workID string,
	attached int64,
	idempotencyKey string,
	req httptransport.VoteRequest,
) (httptransport.VoteResponse, error) {
	result, err := h.Governance.Vote(ctx, commands.VoteCommand{
		CallerID:       callerID,
		WorkID:         workID,
		Decision:       req.Decision,
		AttachedAmount: attached,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		WorkID:        result.WorkID,
		TotalPeople:   result.TotalPeople,
		TotalVotes:    result.TotalVotes,
		RequiredVotes: result.RequiredVotes,
		Agree:         result.Agree,
		Disagree:      result.Disagree,
		Replayed:      result.Replayed,
	}, nil
}

// StatsHandler godoc
// @Summary Count authors and works
// @Tags work-governance
// @Produce json
// @Success 200 {object} httptransport.StatsResponse
// @Router /v1/stats [get]
func (h Handler) StatsHandler(ctx context.Context) (httptransport.StatsResponse, error) {
	stats, err := h.AuthorReads.Stats(ctx)
	if err != nil {
		return httptransport.StatsResponse{}, err
	}
	return httptransport.StatsResponse{Authors: stats.Authors, Works: stats.Works}, nil
}

func mapAuthor(author entities.Author) httptransport.AuthorDTO {
	rated := make([]httptransport.RatedWorkDTO, 0, len(author.RatedWorks))
	for _, item := range author.RatedWorks {
		rated = append(rated, httptransport.RatedWorkDTO{
			WorkID:  item.WorkID,
			Rating:  item.Rating,
			RatedAt: formatTime(item.RatedAt),
		})
	}
	return httptransport.AuthorDTO{
		AuthorID:   author.AuthorID,
		Name:       author.Name,
		Age:        author.Age,
		RatedWorks: rated,
		CreatedAt:  formatTime(author.CreatedAt),
		UpdatedAt:  formatTime(author.UpdatedAt),
	}
}

func mapWorks(works []entities.Work) []httptransport.WorkDTO {
	items := make([]httptransport.WorkDTO, 0, len(works))
	for _, work := range works {
		items = append(items, mapWork(work))
	}
	return items
}

func mapWork(work entities.Work) httptransport.WorkDTO {
	dto := httptransport.WorkDTO{
		WorkID:    work.WorkID,
		DisplayID: work.DisplayID,
		Title:     work.Title,
		Content:   work.Content,
		Author: httptransport.AuthorSnapshotDTO{
			AuthorID:   work.Author.AuthorID,
			Name:       work.Author.Name,
			Age:        work.Author.Age,
			CapturedAt: formatTime(work.Author.CapturedAt),
		},
		Fee:             work.Fee,
		Collaborators:   nonNil(work.Collaborators),
		Ratings:         make([]httptransport.RatingDTO, 0, len(work.Ratings)),
		AverageRating:   work.AverageRating,
		PublishedAt:     formatTime(work.PublishedAt),
		UpdatedAt:       formatTime(work.UpdatedAt),
		Ratios:          mapRatiosOut(work.Ratios),
		AuthorizedUsers: nonNil(work.AuthorizedUsers),
		Visibility:      string(work.Visibility),
	}
	for _, rating := range work.Ratings {
		dto.Ratings = append(dto.Ratings, httptransport.RatingDTO{VoterID: rating.VoterID, Value: rating.Value})
	}
	for _, report := range work.Reports {
		dto.Reports = append(dto.Reports, httptransport.ReportDTO{
			ReporterID: report.ReporterID,
			Reason:     report.Reason,
			ReportedAt: formatTime(report.ReportedAt),
		})
	}
	for _, vote := range work.Votes {
		dto.Votes = append(dto.Votes, httptransport.VoteDTO{
			VoterID:  vote.VoterID,
			Decision: vote.Decision,
			CastAt:   formatTime(vote.CastAt),
		})
	}
	return dto
}

func mapDistribution(result commands.DistributionResult) httptransport.DistributionResponse {
	payouts := make([]httptransport.PayoutDTO, 0, len(result.Payouts))
	for _, payout := range result.Payouts {
		payouts = append(payouts, httptransport.PayoutDTO{
			AccountID:  payout.AccountID,
			Percentage: payout.Percentage,
			Amount:     payout.Amount,
			TransferID: payout.TransferID,
			Status:     string(payout.Status),
			Error:      payout.Error,
		})
	}
	return httptransport.DistributionResponse{
		WorkID:      result.WorkID,
		Total:       result.Total,
		Distributed: result.Distributed,
		Dust:        result.Dust,
		EqualSplit:  result.EqualSplit,
		Payouts:     payouts,
	}
}

// mapRatiosIn keeps nil distinct from an empty list: nil means "not given".
func mapRatiosIn(items []httptransport.RatioDTO) []entities.Ratio {
	if items == nil {
		return nil
	}
	ratios := make([]entities.Ratio, 0, len(items))
	for _, item := range items {
		ratios = append(ratios, entities.Ratio{AccountID: item.AccountID, Percentage: item.Percentage})
	}
	return ratios
}

func mapRatiosOut(ratios []entities.Ratio) []httptransport.RatioDTO {
	if len(ratios) == 0 {
		return nil
	}
	items := make([]httptransport.RatioDTO, 0, len(ratios))
	for _, ratio := range ratios {
		items = append(items, httptransport.RatioDTO{AccountID: ratio.AccountID, Percentage: ratio.Percentage})
	}
	return items
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(timestampLayout)
}
