package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository"
	"github.com/medicore/hospital-api/internal/repository/postgres"
	"github.com/medicore/hospital-api/internal/service/audit"
	"github.com/medicore/hospital-api/pkg/auth"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/security"
)

type Service struct {
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	tokenRepo repository.TokenRepository
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	auditor   *audit.Service
}

func NewService(userRepo repository.UserRepository, roleRepo repository.RoleRepository,
	tokenRepo repository.TokenRepository, jwtSvc auth.JWTService,
	hasher security.PasswordHasher, auditor *audit.Service) *Service {
	return &Service{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		auditor:   auditor,
	}
}

// Login verifies the credentials and mints a token pair. A wrong password
// returns before any refresh token is persisted.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.Active {
		return nil, apperrors.Unauthorized("account is disabled")
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	tokens, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, user.ID, "login", "auth", user.ID, nil)
	return tokens, nil
}

// Register creates a user with the requested role. Roles are seeded, so a
// missing role means the request named one we do not recognize.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.Conflict("email already registered")
	} else if !errors.Is(err, postgres.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	role, err := s.roleRepo.GetByName(ctx, req.Role)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.BadRequest("unknown role")
		}
		return nil, fmt.Errorf("failed to look up role: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Phone:        req.Phone,
		RoleID:       role.ID,
		RoleName:     role.Name,
		Active:       true,
	}
	if req.LicenseNumber != "" {
		user.LicenseNumber = &req.LicenseNumber
	}
	if req.Specialization != "" {
		user.Specialization = &req.Specialization
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditor.Log(ctx, user.ID, "register", "user", user.ID, &audit.Entry{
		Description: fmt.Sprintf("registered with role %s", role.Name),
	})
	return user, nil
}

// Refresh exchanges a usable refresh token for a new access token. The
// refresh token itself stays valid until it expires or is revoked, so a user
// can hold sessions on several devices.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	stored, err := s.tokenRepo.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if !stored.Usable(time.Now()) {
		return nil, apperrors.Unauthorized("refresh token expired or revoked")
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}
	if !user.Active {
		return nil, apperrors.Unauthorized("account is disabled")
	}

	permissions, err := s.permissionsFor(ctx, user)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwtSvc.GenerateAccessToken(user, permissions)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtSvc.AccessExpiry().Seconds()),
	}, nil
}

// Logout revokes the presented refresh token. Other sessions stay live.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokenRepo.Revoke(ctx, refreshToken); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return apperrors.Unauthorized("invalid refresh token")
		}
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Service) issueTokens(ctx context.Context, user *model.User) (*model.TokenResponse, error) {
	permissions, err := s.permissionsFor(ctx, user)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwtSvc.GenerateAccessToken(user, permissions)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, expiresAt, err := s.jwtSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.tokenRepo.Store(ctx, &model.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtSvc.AccessExpiry().Seconds()),
	}, nil
}

func (s *Service) permissionsFor(ctx context.Context, user *model.User) ([]string, error) {
	role, err := s.roleRepo.Get(ctx, user.RoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	return role.Permissions, nil
}
