package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/contexts/creative-works/work-governance/adapters/memory"
	"atelier/contexts/creative-works/work-governance/application/workers"
	"atelier/contexts/creative-works/work-governance/ports"
	contractsv1 "atelier/contracts/gen/events/v1"
)

type recordingPublisher struct {
	topics []string
	events []ports.EventEnvelope
	failOn string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if event.EventID == p.failOn {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func appendEvent(t *testing.T, store *memory.Store, id, eventType string, at time.Time, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, store.AppendOutbox(context.Background(), ports.EventEnvelope{
		EventID:       id,
		EventType:     eventType,
		OccurredAt:    at,
		SourceService: contractsv1.SourceWorkGovernance,
		SchemaVersion: 1,
		PartitionKey:  "w1",
		Data:          raw,
	}))
}

func TestOutboxRelayPublishesInOrderAndMarksSent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	appendEvent(t, store, "evt-1", contractsv1.EventWorkCreated, base, map[string]string{"work_id": "w1"})
	appendEvent(t, store, "evt-2", contractsv1.EventWorkRated, base.Add(time.Second), map[string]string{"work_id": "w1"})

	publisher := &recordingPublisher{}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: fixedClock{now: base}}

	sent, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, publisher.events, 2)
	assert.Equal(t, "evt-1", publisher.events[0].EventID)
	assert.Equal(t, "evt-2", publisher.events[1].EventID)
	assert.Equal(t, []string{workers.DefaultTopic, workers.DefaultTopic}, publisher.topics)
	assert.JSONEq(t, `{"work_id":"w1"}`, string(publisher.events[0].Data))

	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	sent, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestOutboxRelayStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	appendEvent(t, store, "evt-1", contractsv1.EventWorkCreated, base, map[string]string{})
	appendEvent(t, store, "evt-2", contractsv1.EventWorkUpdated, base, map[string]string{})
	appendEvent(t, store, "evt-3", contractsv1.EventWorkDeleted, base, map[string]string{})

	publisher := &recordingPublisher{failOn: "evt-2"}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Topic: "custom", BatchSize: 10}

	sent, err := relay.RunOnce(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"custom"}, publisher.topics)

	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "evt-2", pending[0].OutboxID)

	publisher.failOn = ""
	sent, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
}

func TestOutboxRelayRunStopsOnCancel(t *testing.T) {
	store := memory.NewStore(nil)
	appendEvent(t, store, "evt-1", contractsv1.EventWorkCreated, time.Now(), map[string]string{})
	publisher := &recordingPublisher{}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		pending, _ := store.ListPendingOutbox(context.Background(), 10)
		return len(pending) == 0
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestTransferConsumerHandle(t *testing.T) {
	requestedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var settled []ports.TransferRequest
	consumer := workers.TransferConsumer{
		Settle: func(_ context.Context, request ports.TransferRequest) error {
			settled = append(settled, request)
			return nil
		},
	}

	data, err := json.Marshal(map[string]any{
		"transfer_id":  "tr-1",
		"work_id":      "w1",
		"recipient_id": "bob",
		"amount":       33,
		"reason":       "distribution",
	})
	require.NoError(t, err)

	err = consumer.Handle(context.Background(), ports.EventEnvelope{
		EventID:    "tr-1",
		EventType:  contractsv1.EventFundsTransferRequested,
		OccurredAt: requestedAt,
		Data:       data,
	})
	require.NoError(t, err)
	require.Len(t, settled, 1)
	assert.Equal(t, ports.TransferRequest{
		TransferID:  "tr-1",
		WorkID:      "w1",
		RecipientID: "bob",
		Amount:      33,
		Reason:      "distribution",
		RequestedAt: requestedAt,
	}, settled[0])
}

func TestTransferConsumerIgnoresOtherEvents(t *testing.T) {
	called := false
	consumer := workers.TransferConsumer{
		Settle: func(context.Context, ports.TransferRequest) error {
			called = true
			return nil
		},
	}
	err := consumer.Handle(context.Background(), ports.EventEnvelope{
		EventType: contractsv1.EventWorkCreated,
		Data:      json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestTransferConsumerSurfacesErrors(t *testing.T) {
	consumer := workers.TransferConsumer{
		Settle: func(context.Context, ports.TransferRequest) error { return errors.New("rail down") },
	}
	err := consumer.Handle(context.Background(), ports.EventEnvelope{
		EventType: contractsv1.EventFundsTransferRequested,
		Data:      json.RawMessage(`{"transfer_id":"tr-1"}`),
	})
	require.EqualError(t, err, "rail down")

	err = consumer.Handle(context.Background(), ports.EventEnvelope{
		EventType: contractsv1.EventFundsTransferRequested,
		Data:      json.RawMessage(`not json`),
	})
	require.Error(t, err)
}
