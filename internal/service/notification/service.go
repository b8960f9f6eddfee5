package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/pkg/logger"
	"github.com/medicore/hospital-api/pkg/messaging"
)

// Service enqueues notifications into the outbox table and publishes the
// matching domain event to the broker. Delivery happens in the worker, so
// enqueueing stays cheap on the request path.
type Service struct {
	repo   repository.NotificationRepository
	broker messaging.Broker
	logger *logger.Logger
}

func NewService(repo repository.NotificationRepository, broker messaging.Broker, logger *logger.Logger) *Service {
	return &Service{repo: repo, broker: broker, logger: logger}
}

func (s *Service) Enqueue(ctx context.Context, userID uuid.UUID, typ model.NotificationType, recipient, subject, body string) error {
	n := &model.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	// Event publishing is best-effort; the outbox row is the source of truth.
	if s.broker != nil {
		if err := s.broker.Publish(ctx, "hospital.events", messaging.Message{
			Type:    string(typ),
			Payload: n,
		}); err != nil {
			s.logger.Error(err, "failed to publish notification event", "type", typ)
		}
	}
	return nil
}
