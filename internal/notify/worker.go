package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// NewServeMux routes notification tasks to their handlers.
func NewServeMux(mailer Mailer, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingCreated, HandleBookingCreated(mailer, logger))
	return mux
}

// HandleBookingCreated sends the confirmation for one booking:created task.
func HandleBookingCreated(mailer Mailer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var b BookingCreated
		if err := json.Unmarshal(task.Payload(), &b); err != nil {
			logger.Error("invalid booking payload", zap.Error(err))
			return fmt.Errorf("decode booking payload: %v: %w", err, asynq.SkipRetry)
		}

		if err := mailer.SendBookingConfirmation(ctx, b); err != nil {
			logger.Warn("booking confirmation failed",
				zap.String("appointmentId", b.AppointmentID),
				zap.Error(err),
			)
			return err
		}
		return nil
	}
}

// NewWorker builds the asynq server that processes notification tasks.
func NewWorker(redisOpt asynq.RedisClientOpt, concurrency int, logger *zap.Logger) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueNotifications: 1,
		},
		Logger: logger.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Warn("notification task failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})
}
