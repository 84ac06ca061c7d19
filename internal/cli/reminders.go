package cli

import (
	"substack/internal/amqp"
	"substack/internal/config"
	applog "substack/internal/log"
	"substack/internal/metrics"
	"substack/internal/notify"
	"substack/internal/services"
	"substack/internal/storage"
)

// NewReminderMailer builds the mailer used for direct delivery, falling
// back to a dry-run sender when no SendGrid key is configured.
func NewReminderMailer(logger *applog.Logger, cfg *config.Config, store storage.ReminderStore, m *metrics.Metrics) *services.ReminderMailer {
	sender := notify.NewSender(notify.SenderConfig{
		SendGridAPIKey: cfg.SendGridAPIKey,
		FromAddress:    cfg.EmailFromAddress,
		FromName:       cfg.EmailFromName,
	}, logger.WithComponent(applog.ComponentNotify).Logger)
	return services.NewReminderMailer(store, sender, m, services.SystemClock)
}

// NewReminderProcessor wires the reminder job. With AMQP configured, emails
// are queued for the notifier worker; if the broker is unreachable the job
// keeps running and sends emails itself. The returned func releases the
// AMQP connection.
func NewReminderProcessor(logger *applog.Logger, cfg *config.Config, store storage.Store, m *metrics.Metrics) (*services.ReminderProcessor, func()) {
	mailer := NewReminderMailer(logger, cfg, store, m)

	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, reminder emails are sent in-process")
		return services.NewReminderProcessor(store, nil, mailer, m), func() {}
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, sending reminder emails in-process", "error", err)
		return services.NewReminderProcessor(store, nil, mailer, m), func() {}
	}

	logger.Info("AMQP client initialized, reminder emails are queued", "queue", cfg.AMQPQueue)
	return services.NewReminderProcessor(store, client, mailer, m), func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", "error", err)
		}
	}
}
