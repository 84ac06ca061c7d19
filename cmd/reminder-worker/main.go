package main

import (
	"context"
	"flag"
	"os"
	"time"

	"substack/internal/cli"
	applog "substack/internal/log"
	"substack/internal/metrics"
	"substack/internal/services"
	"substack/internal/worker"
)

func main() {
	once := flag.Bool("once", false, "run a single reminder pass and exit")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentReminder)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting reminder-worker", "interval", cfg.ReminderInterval, "once", *once)

	result := cli.OpenStore(context.Background(), logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()

	processor, closeAMQP := cli.NewReminderProcessor(logger, cfg, result.Store, metrics.New())
	defer closeAMQP()

	if *once {
		stats, err := processor.ProcessDueReminders(context.Background(), services.SystemClock())
		if err != nil {
			logger.Error("Reminder run failed", "error", err)
			os.Exit(1)
		}
		logger.Info("Reminder run finished", "checked", stats.Checked, "reminded", stats.Reminded, "failed", stats.Failed)
		return
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	scheduler := worker.NewScheduler(processor, cfg.ReminderInterval, services.SystemClock)
	if err := scheduler.Run(ctx); err != nil {
		logger.Error("Scheduler stopped with error", "error", err)
	}

	cli.WaitForShutdown(ctx, done)
}
