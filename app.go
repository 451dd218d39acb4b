package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"calendar-booking-server/internal/config"
	"calendar-booking-server/internal/handlers"
	"calendar-booking-server/internal/models"
	"calendar-booking-server/internal/services"
	"calendar-booking-server/internal/store"
)

// app holds the long-lived dependencies shared by every command.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	redis   *redis.Client
	repo    store.Repository
	service *services.BookingService
}

func newApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	loc, err := cfg.Booking.Location()
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == "memory" {
		a.repo = store.NewMemoryStore()
		logger.Warn("using in-memory store; bookings are lost on restart")
	} else {
		db, err := models.InitDB(models.DatabaseConfig{
			Driver: cfg.Database.Driver,
			DSN:    cfg.Database.DSN,
			Debug:  cfg.Database.Debug,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.repo = store.NewGormStore(db)
	}

	var locker services.SlotLocker
	if cfg.Booking.Locker == "redis" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.LockDB,
		})
		locker = services.NewRedisLocker(a.redis, cfg.Booking.LockTTL, cfg.Booking.LockWait, logger)
	} else {
		locker = services.NewLocalLocker()
	}

	rule := services.NewAvailabilityRule(cfg.Booking.AvailabilitySeed, cfg.Booking.AvailabilityRatio)
	gen := services.NewSlotGenerator(cfg.Booking.WindowDays, cfg.Booking.SlotLabels, loc, rule)
	a.service = services.NewBookingService(a.repo, gen, locker, logger)
	return a, nil
}

// healthChecks returns a ping per external dependency in use.
func (a *app) healthChecks() map[string]handlers.HealthCheck {
	checks := map[string]handlers.HealthCheck{}
	if a.db != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		}
	}
	return checks
}

// Close releases database and Redis connections.
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				a.logger.Warn("close database", zap.Error(err))
			}
		}
	}
}
