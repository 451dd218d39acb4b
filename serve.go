package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"calendar-booking-server/internal/jobs"
	"calendar-booking-server/internal/middleware"
	"calendar-booking-server/internal/notify"
	"calendar-booking-server/internal/routes"
)

func serveCmd(c *cli.Context) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if n, err := a.service.EnsureWindow(ctx); err != nil {
		return fmt.Errorf("generate slot window: %w", err)
	} else if n > 0 {
		logger.Info("slot window generated", zap.Int("inserted", n))
	}

	// Notification transport
	var publisher notify.Publisher = notify.LogPublisher{Logger: logger}
	var worker *asynq.Server
	if cfg.Notify.Driver == "asynq" {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.QueueDB,
		}
		client := asynq.NewClient(redisOpt)
		defer client.Close()
		publisher = notify.NewAsynqPublisher(client)

		mailer := notify.LogMailer{From: cfg.Notify.MailFrom, Owner: cfg.Admin.Email, Logger: logger}
		worker = notify.NewWorker(redisOpt, cfg.Notify.WorkerConcurrency, logger)
		if err := worker.Start(notify.NewServeMux(mailer, logger)); err != nil {
			return fmt.Errorf("start notification worker: %w", err)
		}
	}
	dispatcher := notify.NewDispatcher(a.repo, publisher, logger)
	if cfg.Notify.BatchSize > 0 {
		dispatcher.BatchSize = cfg.Notify.BatchSize
	}
	if cfg.Notify.MaxAttempts > 0 {
		dispatcher.MaxAttempts = cfg.Notify.MaxAttempts
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.BookingsPerMinute, cfg.RateLimit.Burst)

	// Periodic jobs
	scheduler := jobs.NewScheduler(a.service.Location(), logger)
	for _, j := range []struct {
		name, spec string
		job        jobs.Job
	}{
		{"ensure-window", jobs.DailyWindowSpec, jobs.EnsureWindow(a.service, logger)},
		{"drain-outbox", cfg.Notify.DrainSpec, jobs.DrainOutbox(dispatcher)},
		{"prune-rate-limiter", "@every 5m", jobs.PruneRateLimiter(limiter, logger)},
	} {
		if err := scheduler.Register(j.name, j.spec, j.job); err != nil {
			return err
		}
	}
	scheduler.Start()

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(logger), middleware.Recovery(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, routes.Deps{
		Config:  cfg,
		Service: a.service,
		Store:   a.repo,
		Logger:  logger,
		Checks:  a.healthChecks(),
		Limiter: limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("server failed", zap.Error(serveErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop in time")
	}
	if worker != nil {
		worker.Shutdown()
	}
	logger.Info("server stopped")
	return serveErr
}
