package system

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockIsUTC(t *testing.T) {
	now := Clock{}.Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.WithinDuration(t, time.Now(), now, time.Second)
}

func TestUUIDsAreUniqueV4(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		id, err := UUIDs{}.NewID(context.Background())
		require.NoError(t, err)
		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), parsed.Version())
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 100)
}
