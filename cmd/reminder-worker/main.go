package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(applog.ComponentReminder, os.Getenv("LOG_LEVEL"))
	logger.Info("Starting reminder-worker")

	cfg := cli.LoadAndValidateConfig(logger.Logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP URL is required by the reminder worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRemindersQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	publisher := amqp.NewPublisher(client, cfg.AMQPTransactionsQueue, cfg.AMQPRemindersQueue)
	processor := services.NewReminderProcessor(repo, publisher, services.PolicyForLeadDays(cfg.ReminderLeadDays))
	logger.Info("Reminder processor configured",
		"lead_days", cfg.ReminderLeadDays,
		"interval", cfg.ReminderInterval)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.NewLoop("reminders", cfg.ReminderInterval, func(ctx context.Context) error {
			_, err := processor.ProcessDue(ctx, time.Now())
			return err
		}).Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Reminder worker stopped with error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Reminder worker stopped gracefully")
}
