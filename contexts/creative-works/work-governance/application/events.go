package application

import (
	"context"
	"encoding/json"
	"time"

	"atelier/contexts/creative-works/work-governance/ports"
	contractsv1 "atelier/contracts/gen/events/v1"
)

// EventSpec describes one integration event produced by a use case.
type EventSpec struct {
	EventType        string
	PartitionKeyPath string
	PartitionKey     string
	OccurredAt       time.Time
	Data             any
}

// AppendEvent wraps data in the canonical envelope and writes it to the
// outbox of the current unit of work. A nil outbox drops the event.
func AppendEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	ids ports.IDGenerator,
	spec EventSpec,
) error {
	if outbox == nil {
		return nil
	}
	eventID, err := ids.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(spec.Data)
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        spec.EventType,
		OccurredAt:       spec.OccurredAt.UTC(),
		SourceService:    contractsv1.SourceWorkGovernance,
		SchemaVersion:    contractsv1.CurrentSchemaVersion,
		PartitionKeyPath: spec.PartitionKeyPath,
		PartitionKey:     spec.PartitionKey,
		Data:             data,
	})
}
