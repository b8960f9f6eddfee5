package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/internal/repository/postgres"
	"github.com/medicore/hospital-api/internal/service/audit"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
)

type Service struct {
	repo      repository.UserRepository
	tokenRepo repository.TokenRepository
	auditor   *audit.Service
}

func NewService(repo repository.UserRepository, tokenRepo repository.TokenRepository,
	auditor *audit.Service) *Service {
	return &Service{repo: repo, tokenRepo: tokenRepo, auditor: auditor}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Service) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.User, error) {
	return s.repo.ListDoctors(ctx)
}

// SetActive enables or disables an account. Deactivation also revokes every
// refresh token the user holds, so live sessions end at the next refresh.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool, updatedBy uuid.UUID) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID == updatedBy && !active {
		return nil, apperrors.BadRequest("cannot deactivate your own account")
	}

	user.Active = active
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if !active {
		if err := s.tokenRepo.RevokeAllForUser(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to revoke sessions: %w", err)
		}
	}

	action := "deactivate"
	if active {
		action = "activate"
	}
	s.auditor.Log(ctx, updatedBy, action, "user", user.ID, nil)
	return user, nil
}
