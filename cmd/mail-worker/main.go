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

	"github.com/angelmondragon/autoparts-backend/internal/mailer"
	"github.com/angelmondragon/autoparts-backend/pkg/config"
	"github.com/angelmondragon/autoparts-backend/pkg/instance"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
	"github.com/angelmondragon/autoparts-backend/pkg/metrics"
	"github.com/angelmondragon/autoparts-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "mail-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "mail-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "mail worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sender, err := mailer.NewSender(cfg.Mail, cfg.App.IsProd(), logg)
	if err != nil {
		return fmt.Errorf("create mail sender: %w", err)
	}

	consumerName := instance.GetID()
	consumer, err := mailer.NewConsumer(mailer.ConsumerParams{
		Reader:    redisClient,
		Sender:    sender,
		Stream:    cfg.Mail.Stream,
		Group:     cfg.Mail.ConsumerGroup,
		Consumer:  consumerName,
		ClaimIdle: cfg.Mail.ClaimIdle,
		Metrics:   metrics.NewMailMetrics(prometheus.DefaultRegisterer),
		Logger:    logg,
	})
	if err != nil {
		return fmt.Errorf("create mail consumer: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": consumerName,
		"provider": sender.Name(),
		"stream":   cfg.Mail.Stream,
	})
	logg.Info(ctx, "starting mail worker")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logg.Info(ctx, "mail worker shutting down gracefully")
	return nil
}
