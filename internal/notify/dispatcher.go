package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"calendar-booking-server/internal/models"
)

// OutboxStore is the slice of the repository the dispatcher drains.
type OutboxStore interface {
	PendingEvents(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkDispatched(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

// Dispatcher moves pending outbox events to a Publisher.
type Dispatcher struct {
	Store       OutboxStore
	Publisher   Publisher
	BatchSize   int
	MaxAttempts int
	Logger      *zap.Logger
	Now         func() time.Time
}

// NewDispatcher creates a Dispatcher with default batch size and attempt cap.
func NewDispatcher(st OutboxStore, pub Publisher, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		Store:       st,
		Publisher:   pub,
		BatchSize:   50,
		MaxAttempts: 10,
		Logger:      logger,
		Now:         time.Now,
	}
}

// DrainOnce publishes one batch of pending events and returns how many were
// dispatched. A failing event is marked and left for the next drain.
func (d *Dispatcher) DrainOnce(ctx context.Context) (int, error) {
	events, err := d.Store.PendingEvents(ctx, d.BatchSize, d.MaxAttempts)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return dispatched, err
		}

		if err := d.Publisher.Publish(ctx, ev); err != nil {
			d.Logger.Warn("outbox publish failed",
				zap.String("eventId", ev.ID),
				zap.Int("attempt", ev.Attempts+1),
				zap.Error(err),
			)
			if markErr := d.Store.MarkFailed(ctx, ev.ID, err.Error()); markErr != nil {
				d.Logger.Error("outbox mark failed", zap.String("eventId", ev.ID), zap.Error(markErr))
			}
			continue
		}

		if err := d.Store.MarkDispatched(ctx, ev.ID, d.Now().UTC()); err != nil {
			d.Logger.Error("outbox mark dispatched", zap.String("eventId", ev.ID), zap.Error(err))
			continue
		}
		dispatched++
	}

	if dispatched > 0 {
		d.Logger.Debug("outbox drained", zap.Int("dispatched", dispatched), zap.Int("pending", len(events)))
	}
	return dispatched, nil
}
