package messaging

import (
	"context"
	"log/slog"
	"sync"

	"atelier/contexts/creative-works/work-governance/ports"
)

const defaultBuffer = 128

// Bus is the in-process event bus used by the outbox relay and the transfer
// consumer. Every consumer group receives each event once; subscriptions
// sharing a group compete for deliveries.
type Bus struct {
	mu     sync.Mutex
	topics map[string]map[string]*group
	buffer int
	logger *slog.Logger
}

type group struct {
	ch      chan ports.EventEnvelope
	members int
	// gone is closed when the last member leaves.
	gone chan struct{}
}

var (
	_ ports.EventPublisher  = (*Bus)(nil)
	_ ports.EventSubscriber = (*Bus)(nil)
)

func NewBus(buffer int, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		topics: make(map[string]map[string]*group),
		buffer: buffer,
		logger: logger,
	}
}

// Publish blocks while a group's buffer is full. Topics without subscribers
// accept and discard the event, and a group whose last member leaves while
// Publish waits on it is skipped.
func (b *Bus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	b.mu.Lock()
	targets := make([]*group, 0, len(b.topics[topic]))
	for _, g := range b.topics[topic] {
		targets = append(targets, g)
	}
	b.mu.Unlock()

	for _, g := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case g.ch <- event:
		case <-g.gone:
			b.logger.Warn("dropping event for departed consumer group",
				"event", "bus_publish_group_gone",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"event_id", event.EventID,
			)
		}
	}

	b.logger.Debug("event published",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"groups", len(targets),
	)
	return nil
}

// Subscribe starts a consumer goroutine that runs until ctx is cancelled.
func (b *Bus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	g := b.join(topic, consumerGroup)

	go func() {
		defer b.leave(topic, consumerGroup)
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-g.ch:
				if err := handler(ctx, event); err != nil {
					b.logger.Error("consumer handler failed",
						"event", "bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}

func (b *Bus) join(topic string, consumerGroup string) *group {
	b.mu.Lock()
	defer b.mu.Unlock()

	groups, ok := b.topics[topic]
	if !ok {
		groups = make(map[string]*group)
		b.topics[topic] = groups
	}
	g, ok := groups[consumerGroup]
	if !ok {
		g = &group{ch: make(chan ports.EventEnvelope, b.buffer), gone: make(chan struct{})}
		groups[consumerGroup] = g
	}
	g.members++
	return g
}

func (b *Bus) leave(topic string, consumerGroup string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	groups := b.topics[topic]
	g, ok := groups[consumerGroup]
	if !ok {
		return
	}
	g.members--
	if g.members > 0 {
		return
	}
	close(g.gone)
	delete(groups, consumerGroup)
	if len(groups) == 0 {
		delete(b.topics, topic)
	}
}
