package notify

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"calendar-booking-server/internal/models"
)

// Publisher hands an outbox event to the delivery side.
type Publisher interface {
	Publish(ctx context.Context, ev models.OutboxEvent) error
}

// Enqueuer is the part of *asynq.Client the publisher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqPublisher enqueues events as asynq tasks.
type AsynqPublisher struct {
	client Enqueuer
}

// NewAsynqPublisher creates an AsynqPublisher over an asynq client.
func NewAsynqPublisher(client Enqueuer) *AsynqPublisher {
	return &AsynqPublisher{client: client}
}

// Publish enqueues the event. A task id conflict means it was already
// enqueued and counts as success.
func (p *AsynqPublisher) Publish(ctx context.Context, ev models.OutboxEvent) error {
	task, opts, err := NewTask(ev)
	if err != nil {
		return err
	}
	if _, err := p.client.EnqueueContext(ctx, task, opts...); err != nil {
		// already enqueued by an earlier drain
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return err
	}
	return nil
}

// LogPublisher only logs events. Used when no queue is configured.
type LogPublisher struct {
	Logger *zap.Logger
}

// Publish logs the event instead of delivering it.
func (p LogPublisher) Publish(_ context.Context, ev models.OutboxEvent) error {
	p.Logger.Info("outbox event",
		zap.String("eventId", ev.ID),
		zap.String("type", ev.Type),
		zap.String("aggregateId", ev.AggregateID),
		zap.String("payload", ev.Payload),
	)
	return nil
}
