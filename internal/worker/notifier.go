package worker

import (
	"context"
	"time"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/pkg/email"
	"github.com/medicore/hospital-api/pkg/logger"
	"github.com/medicore/hospital-api/pkg/metrics"
)

// Notifier drains the notification outbox and delivers each row by email.
// Rows with no recipient (internal alerts) go to the fallback address.
type Notifier struct {
	repo          repository.NotificationRepository
	sender        email.Sender
	logger        *logger.Logger
	metrics       *metrics.Metrics
	batchSize     int
	pollInterval  time.Duration
	alertsAddress string
}

type NotifierConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	AlertsAddress string
}

func NewNotifier(repo repository.NotificationRepository, sender email.Sender,
	log *logger.Logger, m *metrics.Metrics, cfg NotifierConfig) *Notifier {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	return &Notifier{
		repo:          repo,
		sender:        sender,
		logger:        log,
		metrics:       m,
		batchSize:     cfg.BatchSize,
		pollInterval:  cfg.PollInterval,
		alertsAddress: cfg.AlertsAddress,
	}
}

func (n *Notifier) Start(ctx context.Context) {
	ticker := time.NewTicker(n.pollInterval)
	defer ticker.Stop()

	n.logger.Info("notification worker started")
	for {
		select {
		case <-ctx.Done():
			n.logger.Info("notification worker shutting down")
			return
		case <-ticker.C:
			if err := n.processBatch(ctx); err != nil {
				n.logger.Error(err, "failed to process notification batch")
			}
		}
	}
}

func (n *Notifier) processBatch(ctx context.Context) error {
	pending, err := n.repo.ListPending(ctx, n.batchSize)
	if err != nil {
		n.metrics.DatabaseOperations.WithLabelValues("list_pending_notifications", "error").Inc()
		return err
	}
	n.metrics.DatabaseOperations.WithLabelValues("list_pending_notifications", "success").Inc()

	for _, notification := range pending {
		n.deliver(ctx, notification)
	}
	return nil
}

func (n *Notifier) deliver(ctx context.Context, notification *model.Notification) {
	recipient := notification.Recipient
	if recipient == "" {
		recipient = n.alertsAddress
	}
	if recipient == "" {
		n.markFailed(ctx, notification, "no recipient")
		return
	}

	start := time.Now()
	err := n.sender.Send(ctx, recipient, notification.Subject, notification.Body)
	n.metrics.NotificationLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		n.metrics.NotificationsFailed.Inc()
		n.markFailed(ctx, notification, err.Error())
		n.logger.Error(err, "failed to deliver notification",
			"notification_id", notification.ID, "type", notification.Type)
		return
	}

	n.metrics.NotificationsSent.Inc()
	if err := n.repo.MarkSent(ctx, notification.ID); err != nil {
		n.logger.Error(err, "failed to mark notification sent",
			"notification_id", notification.ID)
	}
}

func (n *Notifier) markFailed(ctx context.Context, notification *model.Notification, reason string) {
	if err := n.repo.MarkFailed(ctx, notification.ID, reason); err != nil {
		n.logger.Error(err, "failed to mark notification failed",
			"notification_id", notification.ID)
	}
}
