package errors

import "errors"

// ErrValidation is the parent of every input-correctable failure. Callers can
// test errors.Is(err, ErrValidation) without enumerating the concrete cases.
var ErrValidation = errors.New("validation failed")

var (
	ErrAuthorNotFound      = errors.New("author not found")
	ErrWorkNotFound        = errors.New("work not found")
	ErrAuthorAlreadyExists = errors.New("author already registered for this account")
	ErrUnauthorized        = errors.New("caller is not allowed to perform this action")
	ErrMissingIdentity     = errors.New("caller identity is required")

	ErrInvalidInput     = validation("invalid input")
	ErrInvalidRatios    = validation("ratios must be unique accounts with percentages summing to 100")
	ErrRatingOutOfRange = validation("rating must be between 0 and 5")
	ErrPaymentMismatch  = validation("attached payment does not match the required amount")

	ErrNoOpenRound        = errors.New("there is no open voting round for this work")
	ErrQuorumNotMet       = errors.New("voting quorum not met")
	ErrConsensusRejected  = errors.New("action rejected by disagreement")
	ErrAlreadyVoted       = errors.New("caller already voted in the current round")
	ErrCollaboratorExists = errors.New("collaborator already present on work")

	ErrTransferFailed = errors.New("value transfer failed")

	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyConflict    = errors.New("idempotency key reused with different request")
	ErrIdempotencyInProgress  = errors.New("request with this idempotency key is still running")

	ErrRepositoryInvariantBroke = errors.New("repository invariant violated")
)

type validationError struct {
	msg string
}

func validation(msg string) error {
	return &validationError{msg: msg}
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }
