package messaging

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/contexts/creative-works/work-governance/ports"
)

func TestBus_DeliversOncePerGroup(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus(8, nil)
	var groupA, groupB atomic.Int32
	var wg sync.WaitGroup
	wg.Add(2)

	countA := func(context.Context, ports.EventEnvelope) error {
		groupA.Add(1)
		wg.Done()
		return nil
	}
	require.NoError(t, bus.Subscribe(ctx, "topic", "a", countA))
	require.NoError(t, bus.Subscribe(ctx, "topic", "a", countA))
	require.NoError(t, bus.Subscribe(ctx, "topic", "b", func(context.Context, ports.EventEnvelope) error {
		groupB.Add(1)
		wg.Done()
		return nil
	}))

	require.NoError(t, bus.Publish(ctx, "topic", ports.EventEnvelope{EventID: "evt-1"}))
	waitTimeout(t, &wg)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), groupA.Load())
	assert.Equal(t, int32(1), groupB.Load())
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus(1, nil)
	require.NoError(t, bus.Publish(context.Background(), "nobody", ports.EventEnvelope{EventID: "evt-1"}))
}

func TestBus_HandlerErrorDoesNotStopConsumer(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus(4, nil)
	seen := make(chan string, 2)
	require.NoError(t, bus.Subscribe(ctx, "topic", "g", func(_ context.Context, event ports.EventEnvelope) error {
		seen <- event.EventID
		return errors.New("boom")
	}))

	require.NoError(t, bus.Publish(ctx, "topic", ports.EventEnvelope{EventID: "evt-1"}))
	require.NoError(t, bus.Publish(ctx, "topic", ports.EventEnvelope{EventID: "evt-2"}))

	for _, want := range []string{"evt-1", "evt-2"} {
		select {
		case got := <-seen:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestBus_PublishRespectsContextWhenFull(t *testing.T) {
	t.Parallel()
	subCtx, cancelSub := context.WithCancel(context.Background())
	defer cancelSub()

	bus := NewBus(1, nil)
	block := make(chan struct{})
	require.NoError(t, bus.Subscribe(subCtx, "topic", "g", func(context.Context, ports.EventEnvelope) error {
		<-block
		return nil
	}))
	defer close(block)

	pubCtx, cancelPub := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancelPub()

	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = bus.Publish(pubCtx, "topic", ports.EventEnvelope{EventID: "evt"})
	}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBus_PublishSkipsGroupThatLeftWhileFull(t *testing.T) {
	t.Parallel()

	bus := NewBus(1, nil)
	bus.join("topic", "g")
	require.NoError(t, bus.Publish(context.Background(), "topic", ports.EventEnvelope{EventID: "evt-1"}))

	published := make(chan error, 1)
	go func() {
		published <- bus.Publish(context.Background(), "topic", ports.EventEnvelope{EventID: "evt-2"})
	}()

	select {
	case err := <-published:
		t.Fatalf("publish returned while the group buffer was full: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	bus.leave("topic", "g")
	select {
	case err := <-published:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish stayed blocked on a departed group")
	}
}

func TestBus_UnsubscribeOnCancel(t *testing.T) {
	t.Parallel()

	bus := NewBus(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Subscribe(ctx, "topic", "g", func(context.Context, ports.EventEnvelope) error { return nil }))
	cancel()

	require.Eventually(t, func() bool {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		return len(bus.topics) == 0
	}, time.Second, 5*time.Millisecond)
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for deliveries")
	}
}
