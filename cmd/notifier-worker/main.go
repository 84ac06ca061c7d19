package main

import (
	"context"
	"errors"
	"os"
	"time"

	"substack/internal/amqp"
	"substack/internal/cli"
	applog "substack/internal/log"
	"substack/internal/metrics"
	"substack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notifier worker")
		os.Exit(1)
	}

	logger.Info("Starting notifier-worker", "queue", cfg.AMQPQueue)

	result := cli.OpenStore(context.Background(), logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mailer := cli.NewReminderMailer(logger, cfg, result.Store, metrics.New())
	notifier := worker.NewNotifierWorker(mailer)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := amqpClient.ConsumeReminderEmails(ctx, notifier.HandleReminderEmail); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}
