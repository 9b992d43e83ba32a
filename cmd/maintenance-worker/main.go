package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/retailpos-backend/internal/maintenance"
	"github.com/angelmondragon/retailpos-backend/pkg/config"
	"github.com/angelmondragon/retailpos-backend/pkg/db"
	"github.com/angelmondragon/retailpos-backend/pkg/logger"
	"github.com/angelmondragon/retailpos-backend/pkg/metrics"
	"github.com/angelmondragon/retailpos-backend/pkg/outbox"
	"github.com/angelmondragon/retailpos-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "maintenance-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "maintenance-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "maintenance worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "maintenance worker shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	lease, err := maintenance.NewRedisLease(redisClient, redisClient.MaintenanceLeaseKey(cfg.App.Env), 0)
	if err != nil {
		return err
	}

	retention, err := maintenance.NewOutboxRetention(maintenance.OutboxRetentionParams{
		Logger:        logg,
		DB:            dbClient,
		Outbox:        outbox.NewRepository(dbClient.DB()),
		RetentionDays: cfg.Maintenance.OutboxRetentionDays,
		MaxAttempts:   cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return err
	}

	scheduler, err := maintenance.NewScheduler(maintenance.SchedulerParams{
		Logger:   logg,
		Lease:    lease,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Maintenance.Interval,
		Jobs:     []maintenance.Job{retention},
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "starting maintenance worker")
	return scheduler.Run(ctx)
}
