package user

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository/postgres"
	"github.com/medicore/hospital-api/internal/service/audit"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/logger"
)

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *stubUserRepo) Create(_ context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	if user, ok := r.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, postgres.ErrNotFound
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, postgres.ErrNotFound
}

func (r *stubUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return postgres.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) List(_ context.Context, _ *model.UserFilters) ([]*model.User, error) {
	return nil, nil
}

func (r *stubUserRepo) ListDoctors(_ context.Context) ([]*model.User, error) {
	return nil, nil
}

type stubTokenRepo struct {
	tokens []*model.RefreshToken
}

func (r *stubTokenRepo) Store(_ context.Context, token *model.RefreshToken) error {
	r.tokens = append(r.tokens, token)
	return nil
}

func (r *stubTokenRepo) Get(_ context.Context, token string) (*model.RefreshToken, error) {
	for _, stored := range r.tokens {
		if stored.Token == token {
			return stored, nil
		}
	}
	return nil, postgres.ErrNotFound
}

func (r *stubTokenRepo) Revoke(_ context.Context, token string) error {
	now := time.Now()
	for _, stored := range r.tokens {
		if stored.Token == token && stored.RevokedAt == nil {
			stored.RevokedAt = &now
			return nil
		}
	}
	return postgres.ErrNotFound
}

func (r *stubTokenRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	now := time.Now()
	for _, stored := range r.tokens {
		if stored.UserID == userID && stored.RevokedAt == nil {
			stored.RevokedAt = &now
		}
	}
	return nil
}

func (r *stubTokenRepo) PurgeExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type stubActivityRepo struct{}

func (stubActivityRepo) Create(_ context.Context, _ *model.ActivityLog) error { return nil }
func (stubActivityRepo) List(_ context.Context, _ *model.ActivityFilters) ([]*model.ActivityLog, error) {
	return nil, nil
}
func (stubActivityRepo) Cleanup(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

func newTestService() (*Service, *stubUserRepo, *stubTokenRepo) {
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	repo := &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
	tokenRepo := &stubTokenRepo{}
	return NewService(repo, tokenRepo, audit.NewService(stubActivityRepo{}, log)), repo, tokenRepo
}

func seedUser(repo *stubUserRepo) *model.User {
	user := &model.User{
		Base:     model.Base{ID: uuid.New()},
		Email:    "admin@example.com",
		Name:     "Admin",
		RoleName: model.RoleAdmin,
		Active:   true,
	}
	repo.users[user.ID] = user
	return user
}

func TestSetActiveDeactivates(t *testing.T) {
	svc, repo, _ := newTestService()
	target := seedUser(repo)
	admin := seedUser(repo)

	updated, err := svc.SetActive(context.Background(), target.ID, false, admin.ID)
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.False(t, repo.users[target.ID].Active)
}

func TestDeactivationRevokesSessions(t *testing.T) {
	svc, repo, tokenRepo := newTestService()
	target := seedUser(repo)
	admin := seedUser(repo)

	targetToken := &model.RefreshToken{
		ID: uuid.New(), UserID: target.ID, Token: "target-session",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	adminToken := &model.RefreshToken{
		ID: uuid.New(), UserID: admin.ID, Token: "admin-session",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	tokenRepo.tokens = append(tokenRepo.tokens, targetToken, adminToken)

	_, err := svc.SetActive(context.Background(), target.ID, false, admin.ID)
	require.NoError(t, err)

	assert.NotNil(t, targetToken.RevokedAt)
	assert.Nil(t, adminToken.RevokedAt)
}

func TestReactivationKeepsTokensRevoked(t *testing.T) {
	svc, repo, tokenRepo := newTestService()
	target := seedUser(repo)
	admin := seedUser(repo)

	token := &model.RefreshToken{
		ID: uuid.New(), UserID: target.ID, Token: "old-session",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	tokenRepo.tokens = append(tokenRepo.tokens, token)

	_, err := svc.SetActive(context.Background(), target.ID, false, admin.ID)
	require.NoError(t, err)
	_, err = svc.SetActive(context.Background(), target.ID, true, admin.ID)
	require.NoError(t, err)

	// Re-enabling the account does not resurrect old sessions.
	assert.NotNil(t, token.RevokedAt)
}

func TestCannotDeactivateSelf(t *testing.T) {
	svc, repo, _ := newTestService()
	admin := seedUser(repo)

	_, err := svc.SetActive(context.Background(), admin.ID, false, admin.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
	assert.True(t, repo.users[admin.ID].Active)
}

func TestReactivatingSelfAllowed(t *testing.T) {
	svc, repo, _ := newTestService()
	admin := seedUser(repo)
	repo.users[admin.ID].Active = true

	_, err := svc.SetActive(context.Background(), admin.ID, true, admin.ID)
	assert.NoError(t, err)
}

func TestSetActiveUnknownUser(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.SetActive(context.Background(), uuid.New(), false, uuid.New())
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))
}
