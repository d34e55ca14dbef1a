package ports

import (
	"context"
	"time"

	"atelier/contexts/creative-works/work-governance/domain/entities"
	contractsv1 "atelier/contracts/gen/events/v1"
)

// AuthorRepository owns Author records keyed by account identity.
type AuthorRepository interface {
	// CreateAuthor fails with ErrAuthorAlreadyExists for a known identity.
	CreateAuthor(ctx context.Context, author entities.Author) error
	SaveAuthor(ctx context.Context, author entities.Author) error
	GetAuthor(ctx context.Context, authorID string) (entities.Author, error)
	DeleteAuthor(ctx context.Context, authorID string) error
	ListAuthors(ctx context.Context) ([]entities.Author, error)
	CountAuthors(ctx context.Context) (int, error)
}

// WorkRepository owns the per-author ordered work lists and the global
// work-id index that points every work at its owner and position.
type WorkRepository interface {
	GetWork(ctx context.Context, workID string) (entities.Work, error)
	ListWorksByAuthor(ctx context.Context, authorID string) ([]entities.Work, error)
	// ListWorks returns every work grouped by owner. Owners are ordered by the
	// earliest PublishedAt among their remaining works, ties by owner id, and
	// each owner's works keep their list position.
	ListWorks(ctx context.Context) ([]entities.Work, error)
	// SaveWork replaces the work in place within its owner's list or appends it.
	SaveWork(ctx context.Context, work entities.Work) error
	// RemoveWork reports false when the author's list has no such work.
	RemoveWork(ctx context.Context, authorID string, workID string) (bool, error)
	CountWorks(ctx context.Context) (int, error)
}

// TxManager runs fn as one unit of work. Repositories called with the ctx
// passed to fn participate in the same transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransferRequest is one outbound value transfer to a recipient.
type TransferRequest struct {
	TransferID  string
	WorkID      string
	RecipientID string
	Amount      int64
	Reason      string
	RequestedAt time.Time
}

// ValueTransfer hands a payment to the host's transfer capability. Calls are
// fire-and-forget: success means accepted, not settled.
type ValueTransfer interface {
	Transfer(ctx context.Context, request TransferRequest) error
}

// IdempotencyRecord stores the serialized result of a committed request. A
// record with an empty Payload is a claim whose request is still running.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

func (r IdempotencyRecord) Pending() bool {
	return len(r.Payload) == 0
}

// IdempotencyStore reserves keys before a request runs so concurrent retries
// cannot both execute it.
//
// Claim atomically inserts record as a pending claim unless a live record
// already holds the key, in which case that record is returned with
// claimed=false. Expired records are replaced. Put stores the result for a
// key claimed with the same request hash. Release drops a pending claim so
// the key can be retried.
type IdempotencyStore interface {
	Claim(ctx context.Context, record IdempotencyRecord, now time.Time) (existing IdempotencyRecord, claimed bool, err error)
	Put(ctx context.Context, record IdempotencyRecord) error
	Release(ctx context.Context, key string, requestHash string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxWriter appends an event inside the caller's unit of work.
type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

type EventEnvelope = contractsv1.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
