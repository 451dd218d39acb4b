package jobs

import (
	"context"

	"go.uber.org/zap"

	"calendar-booking-server/internal/middleware"
	"calendar-booking-server/internal/notify"
	"calendar-booking-server/internal/services"
)

// EnsureWindow keeps the rolling slot window generated.
func EnsureWindow(svc *services.BookingService, logger *zap.Logger) Job {
	return func(ctx context.Context) error {
		n, err := svc.EnsureWindow(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("slot window extended", zap.Int("inserted", n))
		}
		return nil
	}
}

// DrainOutbox publishes pending booking notifications.
func DrainOutbox(d *notify.Dispatcher) Job {
	return func(ctx context.Context) error {
		_, err := d.DrainOnce(ctx)
		return err
	}
}

// PruneRateLimiter forgets idle clients of the booking rate limiter.
func PruneRateLimiter(rl *middleware.RateLimiter, logger *zap.Logger) Job {
	return func(ctx context.Context) error {
		if n := rl.Cleanup(); n > 0 {
			logger.Debug("rate limiter pruned", zap.Int("clients", n))
		}
		return nil
	}
}
