package workers

import (
	"context"
	"log/slog"

	application "atelier/contexts/creative-works/work-governance/application"
	"atelier/contexts/creative-works/work-governance/ports"
	contractsv1 "atelier/contracts/gen/events/v1"
)

type transferRequestedData struct {
	TransferID  string `json:"transfer_id"`
	WorkID      string `json:"work_id"`
	RecipientID string `json:"recipient_id"`
	Amount      int64  `json:"amount"`
	Reason      string `json:"reason"`
}

// TransferConsumer hands relayed transfer requests to the payment rail. The
// rail is external; Settle is called once per funds.transfer_requested event.
type TransferConsumer struct {
	Subscriber    ports.EventSubscriber
	Settle        func(ctx context.Context, request ports.TransferRequest) error
	Topic         string
	ConsumerGroup string
	Logger        *slog.Logger
}

func (c TransferConsumer) Start(ctx context.Context) error {
	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	group := c.ConsumerGroup
	if group == "" {
		group = "work-governance-transfers-cg"
	}
	return c.Subscriber.Subscribe(ctx, topic, group, c.Handle)
}

func (c TransferConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	if event.EventType != contractsv1.EventFundsTransferRequested {
		return nil
	}
	logger := application.ResolveLogger(c.Logger)

	var data transferRequestedData
	if err := event.DecodeData(&data); err != nil {
		logger.Error("transfer event decode failed",
			"event", "work_governance_transfer_event_decode_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	request := ports.TransferRequest{
		TransferID:  data.TransferID,
		WorkID:      data.WorkID,
		RecipientID: data.RecipientID,
		Amount:      data.Amount,
		Reason:      data.Reason,
		RequestedAt: event.OccurredAt,
	}
	if c.Settle != nil {
		if err := c.Settle(ctx, request); err != nil {
			return err
		}
	}

	logger.Info("transfer handed to payment rail",
		"event", "work_governance_transfer_handed_off",
		"module", application.ModuleName,
		"layer", "worker",
		"transfer_id", request.TransferID,
		"work_id", request.WorkID,
		"recipient_id", request.RecipientID,
		"amount", request.Amount,
	)
	return nil
}
