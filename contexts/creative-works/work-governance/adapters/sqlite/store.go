// Package sqliteadapter persists work-governance state in SQLite. It backs
// single-node deployments and the adapter tests; the schema is applied by the
// platform migrator before NewStore is called.
package sqliteadapter

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"atelier/contexts/creative-works/work-governance/adapters/rowcodec"
	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
	"atelier/contexts/creative-works/work-governance/ports"
	contractsv1 "atelier/contracts/gen/events/v1"

	sq "github.com/Masterminds/squirrel"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	authorsTable     = "work_governance_authors"
	worksTable       = "work_governance_works"
	idempotencyTable = "work_governance_idempotency"
	outboxTable      = "work_governance_outbox"

	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

var workColumns = []string{
	"work_id", "author_id", "position", "display_id", "title", "content",
	"author_snapshot", "fee", "collaborators", "ratings", "average_rating",
	"published_at", "updated_at", "reports", "ratios", "authorized_users", "votes",
}

var authorColumns = []string{"author_id", "name", "age", "rated_works", "created_at", "updated_at"}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type txKey struct{}

type Store struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *slog.Logger
}

var (
	_ ports.AuthorRepository = (*Store)(nil)
	_ ports.WorkRepository   = (*Store)(nil)
	_ ports.TxManager        = (*Store)(nil)
	_ ports.ValueTransfer    = (*Store)(nil)
	_ ports.IdempotencyStore = (*Store)(nil)
	_ ports.OutboxWriter     = (*Store)(nil)
	_ ports.OutboxRepository = (*Store)(nil)
)

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger:  logger,
	}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			s.logger.Error("sqlite rollback failed",
				"event", "work_governance_sqlite_rollback_failed",
				"module", "creative-works/work-governance",
				"layer", "adapter",
				"error", rollbackErr.Error(),
			)
		}
		return err
	}
	return tx.Commit()
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func (s *Store) exec(ctx context.Context, builder sq.Sqlizer) (sql.Result, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	return s.q(ctx).ExecContext(ctx, query, args...)
}

func (s *Store) CreateAuthor(ctx context.Context, author entities.Author) error {
	cols, err := rowcodec.EncodeAuthor(author)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, s.builder.
		Insert(authorsTable).
		Columns(authorColumns...).
		Values(cols.AuthorID, cols.Name, cols.Age, cols.RatedWorks, toMillis(cols.CreatedAt), toMillis(cols.UpdatedAt)))
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAuthorAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) SaveAuthor(ctx context.Context, author entities.Author) error {
	cols, err := rowcodec.EncodeAuthor(author)
	if err != nil {
		return err
	}
	result, err := s.exec(ctx, s.builder.
		Update(authorsTable).
		Set("name", cols.Name).
		Set("age", cols.Age).
		Set("rated_works", cols.RatedWorks).
		Set("updated_at", toMillis(cols.UpdatedAt)).
		Where(sq.Eq{"author_id": author.AuthorID}))
	if err != nil {
		return err
	}
	return requireAffected(result, domainerrors.ErrAuthorNotFound)
}

func (s *Store) GetAuthor(ctx context.Context, authorID string) (entities.Author, error) {
	query, args, err := s.builder.
		Select(authorColumns...).
		From(authorsTable).
		Where(sq.Eq{"author_id": authorID}).
		ToSql()
	if err != nil {
		return entities.Author{}, err
	}
	author, err := scanAuthor(s.q(ctx).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Author{}, domainerrors.ErrAuthorNotFound
	}
	return author, err
}

func (s *Store) DeleteAuthor(ctx context.Context, authorID string) error {
	result, err := s.exec(ctx, s.builder.
		Delete(authorsTable).
		Where(sq.Eq{"author_id": authorID}))
	if err != nil {
		return err
	}
	return requireAffected(result, domainerrors.ErrAuthorNotFound)
}

func (s *Store) ListAuthors(ctx context.Context) ([]entities.Author, error) {
	query, args, err := s.builder.
		Select(authorColumns...).
		From(authorsTable).
		OrderBy("rowid ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]entities.Author, 0)
	for rows.Next() {
		author, err := scanAuthor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, author)
	}
	return items, rows.Err()
}

func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	return s.count(ctx, authorsTable, nil)
}

func (s *Store) GetWork(ctx context.Context, workID string) (entities.Work, error) {
	query, args, err := s.builder.
		Select(workColumns...).
		From(worksTable).
		Where(sq.Eq{"work_id": workID}).
		ToSql()
	if err != nil {
		return entities.Work{}, err
	}
	work, err := scanWork(s.q(ctx).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Work{}, domainerrors.ErrWorkNotFound
	}
	return work, err
}

func (s *Store) ListWorksByAuthor(ctx context.Context, authorID string) ([]entities.Work, error) {
	return s.listWorks(ctx, s.builder.
		Select(workColumns...).
		From(worksTable).
		Where(sq.Eq{"author_id": authorID}).
		OrderBy("position ASC"))
}

// ListWorks groups works by owner in the order documented on
// ports.WorkRepository.
func (s *Store) ListWorks(ctx context.Context) ([]entities.Work, error) {
	return s.listWorks(ctx, s.builder.
		Select(workColumns...).
		From(worksTable).
		OrderBy(
			"(SELECT MIN(o.published_at) FROM "+worksTable+" o WHERE o.author_id = "+worksTable+".author_id) ASC",
			"author_id ASC",
			"position ASC",
		))
}

func (s *Store) listWorks(ctx context.Context, builder sq.SelectBuilder) ([]entities.Work, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]entities.Work, 0)
	for rows.Next() {
		work, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, work)
	}
	return items, rows.Err()
}

func (s *Store) SaveWork(ctx context.Context, work entities.Work) error {
	cols, err := rowcodec.EncodeWork(work)
	if err != nil {
		return err
	}

	return s.RunInTx(ctx, func(ctx context.Context) error {
		var ownerID string
		query, args, err := s.builder.
			Select("author_id").
			From(worksTable).
			Where(sq.Eq{"work_id": work.WorkID}).
			ToSql()
		if err != nil {
			return err
		}
		err = s.q(ctx).QueryRowContext(ctx, query, args...).Scan(&ownerID)
		switch {
		case err == nil:
			if ownerID != cols.AuthorID {
				return domainerrors.ErrRepositoryInvariantBroke
			}
			_, err = s.exec(ctx, s.builder.
				Update(worksTable).
				SetMap(map[string]any{
					"display_id":       cols.DisplayID,
					"title":            cols.Title,
					"content":          cols.Content,
					"author_snapshot":  cols.AuthorSnapshot,
					"fee":              cols.Fee,
					"collaborators":    cols.Collaborators,
					"ratings":          cols.Ratings,
					"average_rating":   cols.AverageRating,
					"published_at":     toMillis(cols.PublishedAt),
					"updated_at":       toMillis(cols.UpdatedAt),
					"reports":          cols.Reports,
					"ratios":           cols.Ratios,
					"authorized_users": cols.AuthorizedUsers,
					"votes":            cols.Votes,
				}).
				Where(sq.Eq{"work_id": work.WorkID}))
			return err
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		position, err := s.count(ctx, worksTable, sq.Eq{"author_id": cols.AuthorID})
		if err != nil {
			return err
		}
		_, err = s.exec(ctx, s.builder.
			Insert(worksTable).
			Columns(workColumns...).
			Values(
				cols.WorkID, cols.AuthorID, position, cols.DisplayID, cols.Title, cols.Content,
				cols.AuthorSnapshot, cols.Fee, cols.Collaborators, cols.Ratings, cols.AverageRating,
				toMillis(cols.PublishedAt), toMillis(cols.UpdatedAt), cols.Reports, cols.Ratios,
				cols.AuthorizedUsers, cols.Votes,
			))
		if err != nil && isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	})
}

func (s *Store) RemoveWork(ctx context.Context, authorID string, workID string) (bool, error) {
	removed := false
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		var position int
		query, args, err := s.builder.
			Select("position").
			From(worksTable).
			Where(sq.Eq{"work_id": workID, "author_id": authorID}).
			ToSql()
		if err != nil {
			return err
		}
		if err := s.q(ctx).QueryRowContext(ctx, query, args...).Scan(&position); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		if _, err := s.exec(ctx, s.builder.Delete(worksTable).Where(sq.Eq{"work_id": workID})); err != nil {
			return err
		}
		if _, err := s.exec(ctx, s.builder.
			Update(worksTable).
			Set("position", sq.Expr("position - 1")).
			Where(sq.And{sq.Eq{"author_id": authorID}, sq.Gt{"position": position}})); err != nil {
			return err
		}
		removed = true
		return nil
	})
	return removed, err
}

func (s *Store) CountWorks(ctx context.Context) (int, error) {
	return s.count(ctx, worksTable, nil)
}

// Transfer queues a funds.transfer_requested event for the relay.
func (s *Store) Transfer(ctx context.Context, request ports.TransferRequest) error {
	data, err := json.Marshal(map[string]any{
		"transfer_id":  request.TransferID,
		"work_id":      request.WorkID,
		"recipient_id": request.RecipientID,
		"amount":       request.Amount,
		"reason":       request.Reason,
	})
	if err != nil {
		return err
	}
	err = s.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          request.TransferID,
		EventType:        contractsv1.EventFundsTransferRequested,
		OccurredAt:       request.RequestedAt.UTC(),
		SourceService:    contractsv1.SourceWorkGovernance,
		SchemaVersion:    contractsv1.CurrentSchemaVersion,
		PartitionKeyPath: "recipient_id",
		PartitionKey:     request.RecipientID,
		Data:             data,
	})
	if err != nil {
		return errors.Join(domainerrors.ErrTransferFailed, err)
	}
	return nil
}

// Claim inserts a pending row, taking over an expired one in the same
// statement.
func (s *Store) Claim(ctx context.Context, record ports.IdempotencyRecord, now time.Time) (ports.IdempotencyRecord, bool, error) {
	result, err := s.exec(ctx, s.builder.
		Insert(idempotencyTable).
		Columns("key", "request_hash", "payload", "expires_at").
		Values(record.Key, record.RequestHash, sq.Expr("X''"), toMillis(record.ExpiresAt)).
		Suffix("ON CONFLICT (key) DO UPDATE SET request_hash = excluded.request_hash, payload = excluded.payload, expires_at = excluded.expires_at "+
			"WHERE "+idempotencyTable+".expires_at < ?", toMillis(now)))
	if err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	if affected, err := result.RowsAffected(); err == nil && affected > 0 {
		return ports.IdempotencyRecord{}, true, nil
	}

	query, args, err := s.builder.
		Select("key", "request_hash", "payload", "expires_at").
		From(idempotencyTable).
		Where(sq.Eq{"key": record.Key}).
		ToSql()
	if err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	var (
		existing  ports.IdempotencyRecord
		expiresAt int64
	)
	if err := s.q(ctx).QueryRowContext(ctx, query, args...).Scan(&existing.Key, &existing.RequestHash, &existing.Payload, &expiresAt); err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	existing.ExpiresAt = fromMillis(expiresAt)
	return existing, false, nil
}

func (s *Store) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	result, err := s.exec(ctx, s.builder.
		Insert(idempotencyTable).
		Columns("key", "request_hash", "payload", "expires_at").
		Values(record.Key, record.RequestHash, slices.Clone(record.Payload), toMillis(record.ExpiresAt)).
		Suffix("ON CONFLICT (key) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at " +
			"WHERE " + idempotencyTable + ".request_hash = excluded.request_hash"))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (s *Store) Release(ctx context.Context, key string, requestHash string) error {
	_, err := s.exec(ctx, s.builder.
		Delete(idempotencyTable).
		Where(sq.Eq{"key": key, "request_hash": requestHash}).
		Where("length(payload) = 0"))
	return err
}

func (s *Store) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, s.builder.
		Insert(outboxTable).
		Columns("outbox_id", "event_type", "partition_key", "payload", "status", "created_at").
		Values(envelope.EventID, envelope.EventType, envelope.PartitionKey, payload, outboxStatusPending, toMillis(envelope.OccurredAt)))
	if err != nil && isUniqueViolation(err) {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return err
}

func (s *Store) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	query, args, err := s.builder.
		Select("outbox_id", "event_type", "partition_key", "payload", "created_at").
		From(outboxTable).
		Where(sq.Eq{"status": outboxStatusPending}).
		OrderBy("created_at ASC", "rowid ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ports.OutboxMessage, 0, limit)
	for rows.Next() {
		var (
			message   ports.OutboxMessage
			createdAt int64
		)
		if err := rows.Scan(&message.OutboxID, &message.EventType, &message.PartitionKey, &message.Payload, &createdAt); err != nil {
			return nil, err
		}
		message.CreatedAt = fromMillis(createdAt)
		items = append(items, message)
	}
	return items, rows.Err()
}

func (s *Store) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result, err := s.exec(ctx, s.builder.
		Update(outboxTable).
		Set("status", outboxStatusSent).
		Set("sent_at", toMillis(sentAt)).
		Where(sq.Eq{"outbox_id": outboxID}))
	if err != nil {
		return err
	}
	return requireAffected(result, domainerrors.ErrRepositoryInvariantBroke)
}

func (s *Store) count(ctx context.Context, table string, where sq.Sqlizer) (int, error) {
	builder := s.builder.Select("COUNT(*)").From(table)
	if where != nil {
		builder = builder.Where(where)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := s.q(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanAuthor(row rowScanner) (entities.Author, error) {
	var (
		cols      rowcodec.AuthorColumns
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&cols.AuthorID, &cols.Name, &cols.Age, &cols.RatedWorks, &createdAt, &updatedAt); err != nil {
		return entities.Author{}, err
	}
	cols.CreatedAt = fromMillis(createdAt)
	cols.UpdatedAt = fromMillis(updatedAt)
	return rowcodec.DecodeAuthor(cols)
}

func scanWork(row rowScanner) (entities.Work, error) {
	var (
		cols        rowcodec.WorkColumns
		average     sql.NullFloat64
		publishedAt int64
		updatedAt   int64
	)
	err := row.Scan(
		&cols.WorkID, &cols.AuthorID, &cols.Position, &cols.DisplayID, &cols.Title, &cols.Content,
		&cols.AuthorSnapshot, &cols.Fee, &cols.Collaborators, &cols.Ratings, &average,
		&publishedAt, &updatedAt, &cols.Reports, &cols.Ratios, &cols.AuthorizedUsers, &cols.Votes,
	)
	if err != nil {
		return entities.Work{}, err
	}
	if average.Valid {
		cols.AverageRating = &average.Float64
	}
	cols.PublishedAt = fromMillis(publishedAt)
	cols.UpdatedAt = fromMillis(updatedAt)
	return rowcodec.DecodeWork(cols)
}

func requireAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
