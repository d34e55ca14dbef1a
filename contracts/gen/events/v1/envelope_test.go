package v1

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeDecodeData(t *testing.T) {
	env := Envelope{EventID: "evt-1", EventType: EventWorkRated, Data: json.RawMessage(`{"work_id":"w1","rating":4}`)}

	var payload struct {
		WorkID string `json:"work_id"`
		Rating int    `json:"rating"`
	}
	require.NoError(t, env.DecodeData(&payload))
	assert.Equal(t, "w1", payload.WorkID)
	assert.Equal(t, 4, payload.Rating)

	env.Data = nil
	assert.ErrorContains(t, env.DecodeData(&payload), "carries no data")

	env.Data = json.RawMessage(`[`)
	assert.ErrorContains(t, env.DecodeData(&payload), "decode work.rated data")
}
