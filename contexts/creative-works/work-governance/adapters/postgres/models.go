package postgresadapter

import (
	"time"

	"atelier/contexts/creative-works/work-governance/adapters/rowcodec"
	"atelier/contexts/creative-works/work-governance/domain/entities"
	"atelier/contexts/creative-works/work-governance/ports"
)

type authorModel struct {
	AuthorID   string    `gorm:"column:author_id;primaryKey"`
	Name       string    `gorm:"column:name"`
	Age        int       `gorm:"column:age"`
	RatedWorks string    `gorm:"column:rated_works;type:jsonb"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (authorModel) TableName() string {
	return "work_governance_authors"
}

func authorModelFromEntity(author entities.Author) (authorModel, error) {
	cols, err := rowcodec.EncodeAuthor(author)
	if err != nil {
		return authorModel{}, err
	}
	return authorModel(cols), nil
}

func (m authorModel) toEntity() (entities.Author, error) {
	return rowcodec.DecodeAuthor(rowcodec.AuthorColumns(m))
}

type workModel struct {
	WorkID          string    `gorm:"column:work_id;primaryKey"`
	AuthorID        string    `gorm:"column:author_id"`
	Position        int       `gorm:"column:position"`
	DisplayID       string    `gorm:"column:display_id"`
	Title           string    `gorm:"column:title"`
	Content         string    `gorm:"column:content"`
	AuthorSnapshot  string    `gorm:"column:author_snapshot;type:jsonb"`
	Fee             int64     `gorm:"column:fee"`
	Collaborators   string    `gorm:"column:collaborators;type:jsonb"`
	Ratings         string    `gorm:"column:ratings;type:jsonb"`
	AverageRating   *float64  `gorm:"column:average_rating"`
	PublishedAt     time.Time `gorm:"column:published_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
	Reports         string    `gorm:"column:reports;type:jsonb"`
	Ratios          string    `gorm:"column:ratios;type:jsonb"`
	AuthorizedUsers string    `gorm:"column:authorized_users;type:jsonb"`
	Votes           string    `gorm:"column:votes;type:jsonb"`
}

func (workModel) TableName() string {
	return "work_governance_works"
}

func workModelFromEntity(work entities.Work) (workModel, error) {
	cols, err := rowcodec.EncodeWork(work)
	if err != nil {
		return workModel{}, err
	}
	return workModel(cols), nil
}

func (m workModel) toEntity() (entities.Work, error) {
	return rowcodec.DecodeWork(rowcodec.WorkColumns(m))
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "work_governance_idempotency"
}

func (m idempotencyModel) toPort() ports.IdempotencyRecord {
	return ports.IdempotencyRecord{
		Key:         m.Key,
		RequestHash: m.RequestHash,
		Payload:     append([]byte(nil), m.Payload...),
		ExpiresAt:   m.ExpiresAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "work_governance_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}
