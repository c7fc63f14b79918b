package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/autoparts-backend/internal/cron"
	"github.com/angelmondragon/autoparts-backend/internal/mailer"
	"github.com/angelmondragon/autoparts-backend/internal/registration"
	"github.com/angelmondragon/autoparts-backend/internal/users"
	"github.com/angelmondragon/autoparts-backend/pkg/config"
	"github.com/angelmondragon/autoparts-backend/pkg/db"
	"github.com/angelmondragon/autoparts-backend/pkg/instance"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
	"github.com/angelmondragon/autoparts-backend/pkg/metrics"
	"github.com/angelmondragon/autoparts-backend/pkg/migrate"
	"github.com/angelmondragon/autoparts-backend/pkg/redis"
)

const lockName = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.AutoRun(context.Background(), cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	service, err := buildService(cfg, logg, dbClient, redisClient)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
	return nil
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Service, error) {
	mailMetrics := metrics.NewMailMetrics(prometheus.DefaultRegisterer)
	mailQueue, err := mailer.NewQueue(redisClient, cfg.Mail.Stream, mailMetrics, logg)
	if err != nil {
		return nil, fmt.Errorf("create mail queue: %w", err)
	}
	registrationService, err := registration.NewService(registration.ServiceParams{
		Repo:      registration.NewRepository(dbClient.DB()),
		Users:     users.NewRepository(dbClient.DB()),
		Tx:        dbClient,
		Mail:      mailQueue,
		Config:    cfg.Registration,
		Passwords: cfg.Password,
		Logger:    logg,
	})
	if err != nil {
		return nil, fmt.Errorf("create registration service: %w", err)
	}

	purgeJob, err := cron.NewPendingRegistrationPurgeJob(cron.PendingRegistrationPurgeJobParams{
		Logger: logg,
		Purger: registrationService,
	})
	if err != nil {
		return nil, fmt.Errorf("create purge job: %w", err)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName), cfg.Cron.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("create cron lock: %w", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   cron.NewRegistry(purgeJob),
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.LockTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create cron service: %w", err)
	}
	return service, nil
}
