package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/pkg/logger"
)

// Service records activity log entries. Logging is best-effort: a failed
// write must never fail the request that triggered it.
type Service struct {
	repo   repository.ActivityRepository
	logger *logger.Logger
}

func NewService(repo repository.ActivityRepository, logger *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Entry captures the optional details of an audit event.
type Entry struct {
	Description string
	Changes     interface{}
	IPAddress   string
	UserAgent   string
}

func (s *Service) Log(ctx context.Context, userID uuid.UUID, action, entityType string, entityID uuid.UUID, entry *Entry) {
	record := &model.ActivityLog{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if entry != nil {
		record.Description = entry.Description
		record.IPAddress = entry.IPAddress
		record.UserAgent = entry.UserAgent
		if entry.Changes != nil {
			if data, err := json.Marshal(entry.Changes); err == nil {
				record.Changes = data
			}
		}
	}

	// Detach from the request context so a cancelled request still gets
	// its trail written.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.Create(ctx, record); err != nil {
			s.logger.Error(err, "failed to write activity log",
				"action", action, "entity_type", entityType)
		}
	}()
}

func (s *Service) List(ctx context.Context, filters *model.ActivityFilters) ([]*model.ActivityLog, error) {
	return s.repo.List(ctx, filters)
}

// Cleanup deletes entries older than the retention window.
func (s *Service) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.Cleanup(ctx, time.Now().Add(-retention))
}
