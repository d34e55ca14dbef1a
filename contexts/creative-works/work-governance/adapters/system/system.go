// Package system provides the production Clock and IDGenerator shared by the
// SQL-backed stores. The memory store carries its own deterministic pair.
package system

import (
	"context"
	"time"

	"github.com/google/uuid"

	"atelier/contexts/creative-works/work-governance/ports"
)

var (
	_ ports.Clock       = Clock{}
	_ ports.IDGenerator = UUIDs{}
)

// Clock reads wall-clock time in UTC.
type Clock struct{}

func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDs issues random v4 UUIDs for work, event and transfer ids.
type UUIDs struct{}

func (UUIDs) NewID(_ context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
