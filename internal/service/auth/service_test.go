package auth

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/medicore/hospital-api/internal/model"
	"github.com/medicore/hospital-api/internal/repository/postgres"
	"github.com/medicore/hospital-api/internal/service/audit"
	pkgauth "github.com/medicore/hospital-api/pkg/auth"
	apperrors "github.com/medicore/hospital-api/pkg/errors"
	"github.com/medicore/hospital-api/pkg/logger"
	"github.com/medicore/hospital-api/pkg/security"
)

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
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

type stubRoleRepo struct {
	roles map[model.RoleName]*model.Role
}

func (r *stubRoleRepo) GetByName(_ context.Context, name model.RoleName) (*model.Role, error) {
	if role, ok := r.roles[name]; ok {
		return role, nil
	}
	return nil, postgres.ErrNotFound
}

func (r *stubRoleRepo) Get(_ context.Context, id uuid.UUID) (*model.Role, error) {
	for _, role := range r.roles {
		if role.ID == id {
			return role, nil
		}
	}
	return nil, postgres.ErrNotFound
}

type stubTokenRepo struct {
	tokens map[string]*model.RefreshToken
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{tokens: make(map[string]*model.RefreshToken)}
}

func (r *stubTokenRepo) Store(_ context.Context, token *model.RefreshToken) error {
	r.tokens[token.Token] = token
	return nil
}

func (r *stubTokenRepo) Get(_ context.Context, token string) (*model.RefreshToken, error) {
	if stored, ok := r.tokens[token]; ok {
		copied := *stored
		return &copied, nil
	}
	return nil, postgres.ErrNotFound
}

func (r *stubTokenRepo) Revoke(_ context.Context, token string) error {
	stored, ok := r.tokens[token]
	if !ok || stored.RevokedAt != nil {
		return postgres.ErrNotFound
	}
	now := time.Now()
	stored.RevokedAt = &now
	return nil
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

type fixture struct {
	svc       *Service
	userRepo  *stubUserRepo
	tokenRepo *stubTokenRepo
	user      *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	role := &model.Role{
		Base:        model.Base{ID: uuid.New()},
		Name:        model.RoleStaff,
		Permissions: pq.StringArray{model.PermPatientsRead, model.PermBillingRead},
	}
	roleRepo := &stubRoleRepo{roles: map[model.RoleName]*model.Role{role.Name: role}}

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Email:        "staff@example.com",
		PasswordHash: string(hash),
		Name:         "Ada Lovelace",
		RoleID:       role.ID,
		RoleName:     role.Name,
		Active:       true,
	}
	userRepo := newStubUserRepo()
	userRepo.users[user.ID] = user

	tokenRepo := newStubTokenRepo()
	jwtSvc := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})

	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	svc := NewService(userRepo, roleRepo, tokenRepo, jwtSvc,
		security.NewBcryptHasher(bcrypt.MinCost), audit.NewService(stubActivityRepo{}, log))

	return &fixture{svc: svc, userRepo: userRepo, tokenRepo: tokenRepo, user: user}
}

func TestLoginIssuesTokenPair(t *testing.T) {
	f := newFixture(t)

	tokens, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email: "staff@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, int64(900), tokens.ExpiresIn)

	// The refresh token is persisted for later revocation.
	stored, err := f.tokenRepo.Get(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, stored.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email: "staff@example.com", Password: "wrong-password",
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))

	// A failed login must leave no refresh token behind.
	assert.Empty(t, f.tokenRepo.tokens)
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email: "nobody@example.com", Password: "correct-horse",
	})
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))
}

func TestLoginDisabledAccount(t *testing.T) {
	f := newFixture(t)
	f.user.Active = false

	_, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email: "staff@example.com", Password: "correct-horse",
	})
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))
}

func TestRefreshKeepsRefreshTokenValid(t *testing.T) {
	f := newFixture(t)

	tokens, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email: "staff@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, tokens.RefreshToken, refreshed.RefreshToken)

	// The same refresh token can be exchanged again.
	_, err = f.svc.Refresh(context.Background(), tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshRevokedToken(t *testing.T) {
	f := newFixture(t)

	tokens, err := f.svc.Login(context.Background(), &model.LoginRequest{
		Email: "staff@example.com", Password: "correct-horse",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), tokens.RefreshToken))

	_, err = f.svc.Refresh(context.Background(), tokens.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	f := newFixture(t)

	forged := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "other-access-secret",
		RefreshSecret: "other-refresh-secret",
	})
	token, _, err := forged.GenerateRefreshToken(f.user)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), token)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))
}

func TestConcurrentSessions(t *testing.T) {
	f := newFixture(t)
	login := func() *model.TokenResponse {
		tokens, err := f.svc.Login(context.Background(), &model.LoginRequest{
			Email: "staff@example.com", Password: "correct-horse",
		})
		require.NoError(t, err)
		return tokens
	}

	first := login()
	second := login()

	// Logging out one device leaves the other session usable.
	require.NoError(t, f.svc.Logout(context.Background(), first.RefreshToken))

	_, err := f.svc.Refresh(context.Background(), first.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))

	_, err = f.svc.Refresh(context.Background(), second.RefreshToken)
	assert.NoError(t, err)
}

func TestLogoutUnknownToken(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Logout(context.Background(), "never-issued")
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "staff@example.com",
		Password: "long-enough-password",
		Name:     "Duplicate",
		Role:     model.RoleStaff,
	})
	assert.Equal(t, http.StatusConflict, apperrors.StatusOf(err))
}

func TestRegisterUnknownRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "new@example.com",
		Password: "long-enough-password",
		Name:     "New User",
		Role:     model.RoleDoctor,
	})
	assert.Equal(t, http.StatusBadRequest, apperrors.StatusOf(err))
}

func TestRegisterStoresDoctorFields(t *testing.T) {
	f := newFixture(t)
	f.svc.roleRepo.(*stubRoleRepo).roles[model.RoleDoctor] = &model.Role{
		Base:        model.Base{ID: uuid.New()},
		Name:        model.RoleDoctor,
		Permissions: pq.StringArray{model.PermPatientsRead, model.PermRecordsWrite},
	}

	user, err := f.svc.Register(context.Background(), &model.RegisterRequest{
		Email:          "doctor@example.com",
		Password:       "long-enough-password",
		Name:           "Gregory House",
		Role:           model.RoleDoctor,
		LicenseNumber:  "MD-12345",
		Specialization: "Diagnostics",
	})
	require.NoError(t, err)

	require.NotNil(t, user.LicenseNumber)
	assert.Equal(t, "MD-12345", *user.LicenseNumber)
	require.NotNil(t, user.Specialization)
	assert.Equal(t, "Diagnostics", *user.Specialization)
	assert.True(t, user.Active)
}
