package v1

import (
	"encoding/json"
	"fmt"
	"time"
)

// CurrentSchemaVersion is stamped on every envelope work-governance emits.
const CurrentSchemaVersion = 1

// Envelope wraps every work-governance integration event. Consumers switch on
// EventType and decode Data into the matching payload. Fields may be added
// but never renamed.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// DecodeData unmarshals the payload into dst.
func (e Envelope) DecodeData(dst any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s (%s) carries no data", e.EventID, e.EventType)
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return fmt.Errorf("decode %s data: %w", e.EventType, err)
	}
	return nil
}
