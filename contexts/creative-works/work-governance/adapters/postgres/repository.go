package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"time"

	"atelier/contexts/creative-works/work-governance/domain/entities"
	domainerrors "atelier/contexts/creative-works/work-governance/domain/errors"
	"atelier/contexts/creative-works/work-governance/ports"
	contractsv1 "atelier/contracts/gen/events/v1"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

type txKey struct{}

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

var (
	_ ports.AuthorRepository = (*Repository)(nil)
	_ ports.WorkRepository   = (*Repository)(nil)
	_ ports.TxManager        = (*Repository)(nil)
	_ ports.ValueTransfer    = (*Repository)(nil)
	_ ports.IdempotencyStore = (*Repository)(nil)
	_ ports.OutboxWriter     = (*Repository)(nil)
	_ ports.OutboxRepository = (*Repository)(nil)
)

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// RunInTx opens a gorm transaction and carries it in ctx. Nested calls join
// the outer transaction.
func (r *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *Repository) CreateAuthor(ctx context.Context, author entities.Author) error {
	row, err := authorModelFromEntity(author)
	if err != nil {
		return err
	}
	if err := r.conn(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAuthorAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repository) SaveAuthor(ctx context.Context, author entities.Author) error {
	row, err := authorModelFromEntity(author)
	if err != nil {
		return err
	}
	result := r.conn(ctx).
		Model(&authorModel{}).
		Where("author_id = ?", author.AuthorID).
		Updates(map[string]any{
			"name":        row.Name,
			"age":         row.Age,
			"rated_works": row.RatedWorks,
			"updated_at":  row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAuthorNotFound
	}
	return nil
}

func (r *Repository) GetAuthor(ctx context.Context, authorID string) (entities.Author, error) {
	var row authorModel
	err := r.conn(ctx).
		Where("author_id = ?", authorID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Author{}, domainerrors.ErrAuthorNotFound
		}
		return entities.Author{}, err
	}
	return row.toEntity()
}

func (r *Repository) DeleteAuthor(ctx context.Context, authorID string) error {
	result := r.conn(ctx).
		Where("author_id = ?", authorID).
		Delete(&authorModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAuthorNotFound
	}
	return nil
}

func (r *Repository) ListAuthors(ctx context.Context) ([]entities.Author, error) {
	var rows []authorModel
	if err := r.conn(ctx).
		Order("created_at ASC").
		Order("author_id ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Author, 0, len(rows))
	for _, row := range rows {
		author, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, author)
	}
	return items, nil
}

func (r *Repository) CountAuthors(ctx context.Context) (int, error) {
	var count int64
	if err := r.conn(ctx).Model(&authorModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// GetWork locks the row when called inside a unit of work so concurrent
// votes on one work serialize.
func (r *Repository) GetWork(ctx context.Context, workID string) (entities.Work, error) {
	db := r.conn(ctx)
	if _, inTx := ctx.Value(txKey{}).(*gorm.DB); inTx {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row workModel
	err := db.
		Where("work_id = ?", workID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Work{}, domainerrors.ErrWorkNotFound
		}
		return entities.Work{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListWorksByAuthor(ctx context.Context, authorID string) ([]entities.Work, error) {
	var rows []workModel
	if err := r.conn(ctx).
		Where("author_id = ?", authorID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "position"}}).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return workModelsToEntities(rows)
}

// ListWorks groups works by owner in the order documented on
// ports.WorkRepository.
func (r *Repository) ListWorks(ctx context.Context) ([]entities.Work, error) {
	var rows []workModel
	if err := r.conn(ctx).
		Order("(SELECT MIN(o.published_at) FROM work_governance_works o WHERE o.author_id = work_governance_works.author_id) ASC").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "author_id"}}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "position"}}).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	return workModelsToEntities(rows)
}

func (r *Repository) SaveWork(ctx context.Context, work entities.Work) error {
	row, err := workModelFromEntity(work)
	if err != nil {
		return err
	}

	db := r.conn(ctx)
	var existing workModel
	err = db.Select("work_id", "author_id", "position").
		Where("work_id = ?", work.WorkID).
		First(&existing).
		Error
	switch {
	case err == nil:
		if existing.AuthorID != row.AuthorID {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		row.Position = existing.Position
		return db.Model(&workModel{}).
			Where("work_id = ?", work.WorkID).
			Select("*").
			Omit("work_id", "author_id", "position").
			Updates(&row).
			Error
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	var next int64
	if err := db.Model(&workModel{}).
		Where("author_id = ?", row.AuthorID).
		Count(&next).
		Error; err != nil {
		return err
	}
	row.Position = int(next)
	if err := db.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

// RemoveWork deletes the work and closes the gap in its owner's positions.
func (r *Repository) RemoveWork(ctx context.Context, authorID string, workID string) (bool, error) {
	removed := false
	err := r.RunInTx(ctx, func(ctx context.Context) error {
		db := r.conn(ctx)
		var existing workModel
		err := db.Select("work_id", "position").
			Where("work_id = ? AND author_id = ?", workID, authorID).
			First(&existing).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := db.Where("work_id = ?", workID).Delete(&workModel{}).Error; err != nil {
			return err
		}
		if err := db.Model(&workModel{}).
			Where("author_id = ? AND position > ?", authorID, existing.Position).
			Update("position", gorm.Expr("position - 1")).
			Error; err != nil {
			return err
		}
		removed = true
		return nil
	})
	return removed, err
}

func (r *Repository) CountWorks(ctx context.Context) (int, error) {
	var count int64
	if err := r.conn(ctx).Model(&workModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// Transfer records a funds.transfer_requested outbox row; the relay hands it
// to the payment rail. The transfer id doubles as the event id.
func (r *Repository) Transfer(ctx context.Context, request ports.TransferRequest) error {
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
	err = r.AppendOutbox(ctx, ports.EventEnvelope{
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
func (r *Repository) Claim(ctx context.Context, record ports.IdempotencyRecord, now time.Time) (ports.IdempotencyRecord, bool, error) {
	row := idempotencyModel{
		Key:         record.Key,
		RequestHash: record.RequestHash,
		Payload:     []byte{},
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	created := r.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"request_hash", "payload", "expires_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "work_governance_idempotency.expires_at < ?", Vars: []any{now.UTC()}},
			}},
		}).
		Create(&row)
	if created.Error != nil {
		return ports.IdempotencyRecord{}, false, created.Error
	}
	if created.RowsAffected > 0 {
		return ports.IdempotencyRecord{}, true, nil
	}

	var existing idempotencyModel
	if err := r.conn(ctx).
		Where("key = ?", record.Key).
		First(&existing).
		Error; err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	return existing.toPort(), false, nil
}

func (r *Repository) Put(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         record.Key,
		RequestHash: record.RequestHash,
		Payload:     slices.Clone(record.Payload),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	stored := r.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "work_governance_idempotency.request_hash = excluded.request_hash"},
			}},
		}).
		Create(&row)
	if stored.Error != nil {
		return stored.Error
	}
	if stored.RowsAffected == 0 {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) Release(ctx context.Context, key string, requestHash string) error {
	return r.conn(ctx).
		Where("key = ? AND request_hash = ? AND octet_length(payload) = 0", key, requestHash).
		Delete(&idempotencyModel{}).
		Error
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if err := r.conn(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.conn(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.conn(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func workModelsToEntities(rows []workModel) ([]entities.Work, error) {
	items := make([]entities.Work, 0, len(rows))
	for _, row := range rows {
		work, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, work)
	}
	return items, nil
}
