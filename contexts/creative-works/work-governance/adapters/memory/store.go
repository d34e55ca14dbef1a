package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	application "atelier/contexts/creative-works/work-governance/application"
	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
	"atelier/contexts/creative-works/work-governance/ports"
)

type workLocation struct {
	AuthorID string
	Position int
}

// Store is an in-memory adapter implementing the work-governance ports for
// local runtime and tests. It is not intended as production persistence.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	authors     map[string]entities.Author
	authorOrder []string
	works       map[string][]entities.Work
	index       map[string]workLocation
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]ports.OutboxMessage
	outboxOrder []string
	outboxSent  map[string]time.Time
	transfers   []ports.TransferRequest
	failing     map[string]error

	sequence uint64
	now      func() time.Time
	logger   *slog.Logger
}

type state struct {
	authors     map[string]entities.Author
	authorOrder []string
	works       map[string][]entities.Work
	index       map[string]workLocation
	outbox      map[string]ports.OutboxMessage
	outboxOrder []string
}

type txKey struct{}

var (
	_ ports.AuthorRepository = (*Store)(nil)
	_ ports.WorkRepository   = (*Store)(nil)
	_ ports.TxManager        = (*Store)(nil)
	_ ports.ValueTransfer    = (*Store)(nil)
	_ ports.IdempotencyStore = (*Store)(nil)
	_ ports.OutboxWriter     = (*Store)(nil)
	_ ports.OutboxRepository = (*Store)(nil)
	_ ports.Clock            = (*Store)(nil)
	_ ports.IDGenerator      = (*Store)(nil)
)

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		authors:     make(map[string]entities.Author),
		works:       make(map[string][]entities.Work),
		index:       make(map[string]workLocation),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]ports.OutboxMessage),
		outboxSent:  make(map[string]time.Time),
		failing:     make(map[string]error),
		logger:      application.ResolveLogger(logger),
	}
}

// RunInTx serializes units of work and restores the pre-call state when fn
// fails. Nested calls join the outer unit.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snapshot := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snapshot)
		s.logger.Debug("memory unit of work rolled back",
			"event", "work_governance_memory_tx_rolled_back",
			"module", "creative-works/work-governance",
			"layer", "adapter",
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (s *Store) CreateAuthor(_ context.Context, author entities.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.authors[author.AuthorID]; exists {
		return domainerrors.ErrAuthorAlreadyExists
	}
	s.authors[author.AuthorID] = author.Clone()
	s.authorOrder = append(s.authorOrder, author.AuthorID)
	return nil
}

func (s *Store) SaveAuthor(_ context.Context, author entities.Author) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.authors[author.AuthorID]; !exists {
		return domainerrors.ErrAuthorNotFound
	}
	s.authors[author.AuthorID] = author.Clone()
	return nil
}

func (s *Store) GetAuthor(_ context.Context, authorID string) (entities.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	author, ok := s.authors[authorID]
	if !ok {
		return entities.Author{}, domainerrors.ErrAuthorNotFound
	}
	return author.Clone(), nil
}

func (s *Store) DeleteAuthor(_ context.Context, authorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.authors[authorID]; !ok {
		return domainerrors.ErrAuthorNotFound
	}
	delete(s.authors, authorID)
	s.authorOrder = slices.DeleteFunc(slices.Clone(s.authorOrder), func(id string) bool { return id == authorID })
	return nil
}

func (s *Store) ListAuthors(_ context.Context) ([]entities.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Author, 0, len(s.authorOrder))
	for _, id := range s.authorOrder {
		items = append(items, s.authors[id].Clone())
	}
	return items, nil
}

func (s *Store) CountAuthors(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.authors), nil
}

func (s *Store) GetWork(_ context.Context, workID string) (entities.Work, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.index[workID]
	if !ok {
		return entities.Work{}, domainerrors.ErrWorkNotFound
	}
	list := s.works[loc.AuthorID]
	if loc.Position >= len(list) || list[loc.Position].WorkID != workID {
		return entities.Work{}, domainerrors.ErrRepositoryInvariantBroke
	}
	return list[loc.Position].Clone(), nil
}

func (s *Store) ListWorksByAuthor(_ context.Context, authorID string) ([]entities.Work, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.works[authorID]
	items := make([]entities.Work, 0, len(list))
	for _, work := range list {
		items = append(items, work.Clone())
	}
	return items, nil
}

func (s *Store) ListWorks(_ context.Context) ([]entities.Work, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make([]string, 0, len(s.works))
	earliest := make(map[string]time.Time, len(s.works))
	for authorID, list := range s.works {
		if len(list) == 0 {
			continue
		}
		owners = append(owners, authorID)
		first := list[0].PublishedAt
		for _, work := range list[1:] {
			if work.PublishedAt.Before(first) {
				first = work.PublishedAt
			}
		}
		earliest[authorID] = first
	}
	slices.SortFunc(owners, func(a, b string) int {
		if c := earliest[a].Compare(earliest[b]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	items := make([]entities.Work, 0, len(s.index))
	for _, authorID := range owners {
		for _, work := range s.works[authorID] {
			items = append(items, work.Clone())
		}
	}
	return items, nil
}

func (s *Store) SaveWork(_ context.Context, work entities.Work) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	authorID := work.OwnerID()
	if loc, ok := s.index[work.WorkID]; ok {
		if loc.AuthorID != authorID {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		list := slices.Clone(s.works[authorID])
		list[loc.Position] = work.Clone()
		s.works[authorID] = list
		return nil
	}

	list := append(slices.Clone(s.works[authorID]), work.Clone())
	s.works[authorID] = list
	s.index[work.WorkID] = workLocation{AuthorID: authorID, Position: len(list) - 1}
	return nil
}

func (s *Store) RemoveWork(_ context.Context, authorID string, workID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok := s.index[workID]
	if !ok || loc.AuthorID != authorID {
		return false, nil
	}
	list := slices.Delete(slices.Clone(s.works[authorID]), loc.Position, loc.Position+1)
	s.works[authorID] = list
	delete(s.index, workID)
	for position := loc.Position; position < len(list); position++ {
		s.index[list[position].WorkID] = workLocation{AuthorID: authorID, Position: position}
	}
	return true, nil
}

func (s *Store) CountWorks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index), nil
}

func (s *Store) Transfer(_ context.Context, request ports.TransferRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failing[request.RecipientID]; ok {
		return fmt.Errorf("%w: %v", domainerrors.ErrTransferFailed, err)
	}
	s.transfers = append(s.transfers, request)
	return nil
}

// FailTransfersTo makes every later transfer to accountID fail with err.
func (s *Store) FailTransfersTo(accountID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[accountID] = err
}

func (s *Store) Transfers() []ports.TransferRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.transfers)
}

func (s *Store) Claim(_ context.Context, record ports.IdempotencyRecord, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.idempotency[record.Key]; ok && !now.After(existing.ExpiresAt) {
		existing.Payload = slices.Clone(existing.Payload)
		return existing, false, nil
	}
	record.Payload = []byte{}
	s.idempotency[record.Key] = record
	return ports.IdempotencyRecord{}, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.idempotency[record.Key]; ok && existing.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	record.Payload = slices.Clone(record.Payload)
	s.idempotency[record.Key] = record
	return nil
}

func (s *Store) Release(_ context.Context, key string, requestHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.idempotency[key]; ok && existing.RequestHash == requestHash && existing.Pending() {
		delete(s.idempotency, key)
	}
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.outbox[envelope.EventID]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.outbox[envelope.EventID] = ports.OutboxMessage{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt,
	}
	s.outboxOrder = append(s.outboxOrder, envelope.EventID)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	messages := make([]ports.OutboxMessage, 0, limit)
	for _, id := range s.outboxOrder {
		if _, sent := s.outboxSent[id]; sent {
			continue
		}
		if msg, ok := s.outbox[id]; ok {
			messages = append(messages, msg)
		}
		if len(messages) >= limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outbox[outboxID]; !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.outboxSent[outboxID] = sentAt.UTC()
	return nil
}

func (s *Store) OutboxEvents() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		items = append(items, s.outbox[id])
	}
	return items
}

// SetNow pins the store clock; a nil fn restores wall-clock time.
func (s *Store) SetNow(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = fn
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	fn := s.now
	s.mu.RUnlock()
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("wg-%d", value), nil
}

func (s *Store) snapshot() state {
	s.mu.RLock()
	defer s.mu.RUnlock()

	works := make(map[string][]entities.Work, len(s.works))
	for authorID, list := range s.works {
		works[authorID] = slices.Clone(list)
	}
	return state{
		authors:     maps.Clone(s.authors),
		authorOrder: slices.Clone(s.authorOrder),
		works:       works,
		index:       maps.Clone(s.index),
		outbox:      maps.Clone(s.outbox),
		outboxOrder: slices.Clone(s.outboxOrder),
	}
}

func (s *Store) restore(snapshot state) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.authors = snapshot.authors
	s.authorOrder = snapshot.authorOrder
	s.works = snapshot.works
	s.index = snapshot.index
	s.outbox = snapshot.outbox
	s.outboxOrder = snapshot.outboxOrder
}
