package httptransport

type RatedWorkDTO struct {
	WorkID  string `json:"work_id"`
	Rating  int    `json:"rating"`
	RatedAt string `json:"rated_at"`
}

type AuthorDTO struct {
	AuthorID   string         `json:"author_id"`
	Name       string         `json:"name"`
	Age        int            `json:"age"`
	RatedWorks []RatedWorkDTO `json:"rated_works"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

type CreateAuthorRequest struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// UpdateAuthorRequest leaves omitted fields unchanged.
type UpdateAuthorRequest struct {
	Name *string `json:"name,omitempty"`
	Age  *int    `json:"age,omitempty"`
}

type AuthorResponse struct {
	Item AuthorDTO `json:"item"`
}

type ListAuthorsResponse struct {
	Items []AuthorDTO `json:"items"`
}

type AuthorSnapshotDTO struct {
	AuthorID   string `json:"author_id"`
	Name       string `json:"name"`
	Age        int    `json:"age"`
	CapturedAt string `json:"captured_at"`
}

type RatingDTO struct {
	VoterID string `json:"voter_id"`
	Value   int    `json:"value"`
}

type ReportDTO struct {
	ReporterID string `json:"reporter_id"`
	Reason     string `json:"reason"`
	ReportedAt string `json:"reported_at"`
}

type RatioDTO struct {
	AccountID  string `json:"account_id"`
	Percentage int    `json:"percentage"`
}

type VoteDTO struct {
	VoterID  string `json:"voter_id"`
	Decision bool   `json:"decision"`
	CastAt   string `json:"cast_at"`
}

// WorkDTO is a projected work. Governance fields are omitted for callers
// outside the author's group.
type WorkDTO struct {
	WorkID          string            `json:"work_id"`
	DisplayID       string            `json:"display_id"`
	Title           string            `json:"title"`
	Content         string            `json:"content"`
	Author          AuthorSnapshotDTO `json:"author"`
	Fee             int64             `json:"fee"`
	Collaborators   []string          `json:"collaborators"`
	Ratings         []RatingDTO       `json:"ratings"`
	AverageRating   *float64          `json:"average_rating"`
	PublishedAt     string            `json:"published_at"`
	UpdatedAt       string            `json:"updated_at"`
	Reports         []ReportDTO       `json:"reports,omitempty"`
	Ratios          []RatioDTO        `json:"ratios,omitempty"`
	AuthorizedUsers []string          `json:"authorized_users"`
	Votes           []VoteDTO         `json:"votes,omitempty"`
	Visibility      string            `json:"visibility"`
}

// CreateWorkRequest without ratios distributes funds in equal shares.
type CreateWorkRequest struct {
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Collaborators []string   `json:"collaborators,omitempty"`
	Fee           *int64     `json:"fee,omitempty"`
	Ratios        []RatioDTO `json:"ratios,omitempty"`
}

type UpdateWorkRequest struct {
	Title         *string    `json:"title,omitempty"`
	Content       *string    `json:"content,omitempty"`
	Fee           *int64     `json:"fee,omitempty"`
	AverageRating *float64   `json:"average_rating,omitempty"`
	Ratios        []RatioDTO `json:"ratios,omitempty"`
}

type WorkResponse struct {
	Item WorkDTO `json:"item"`
}

type ListWorksResponse struct {
	Items []WorkDTO `json:"items"`
}

type RateWorkRequest struct {
	Rating int `json:"rating"`
}

type RateWorkResponse struct {
	WorkID        string   `json:"work_id"`
	Changed       bool     `json:"changed"`
	RatingCount   int      `json:"rating_count"`
	AverageRating *float64 `json:"average_rating"`
}

type AddCollaboratorsRequest struct {
	Collaborators []string `json:"collaborators"`
}

type ReportInfringementRequest struct {
	Reason string `json:"reason"`
}

// ActionResponse acknowledges a state change that returns no entity.
type ActionResponse struct {
	WorkID string `json:"work_id,omitempty"`
	OK     bool   `json:"ok"`
}

type VoteRequest struct {
	Decision bool `json:"decision"`
}

type VoteResponse struct {
	WorkID        string `json:"work_id"`
	TotalPeople   int    `json:"total_people"`
	TotalVotes    int    `json:"total_votes"`
	RequiredVotes int    `json:"required_votes"`
	Agree         int    `json:"agree"`
	Disagree      int    `json:"disagree"`
	Replayed      bool   `json:"replayed,omitempty"`
}

type DistributeFundsRequest struct {
	TotalAmount int64      `json:"total_amount"`
	Ratios      []RatioDTO `json:"ratios,omitempty"`
}

type PayoutDTO struct {
	AccountID  string `json:"account_id"`
	Percentage int    `json:"percentage"`
	Amount     int64  `json:"amount"`
	TransferID string `json:"transfer_id,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

type DistributionResponse struct {
	WorkID      string      `json:"work_id"`
	Total       int64       `json:"total"`
	Distributed int64       `json:"distributed"`
	Dust        int64       `json:"dust"`
	EqualSplit  bool        `json:"equal_split"`
	Payouts     []PayoutDTO `json:"payouts"`
	Replayed    bool        `json:"replayed,omitempty"`
}

type AccessResponse struct {
	WorkID           string                `json:"work_id"`
	Granted          bool                  `json:"granted"`
	AlreadyHadAccess bool                  `json:"already_had_access"`
	Charged          int64                 `json:"charged"`
	Distribution     *DistributionResponse `json:"distribution,omitempty"`
	Replayed         bool                  `json:"replayed,omitempty"`
}

type StatsResponse struct {
	Authors int `json:"authors"`
	Works   int `json:"works"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
