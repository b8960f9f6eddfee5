package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicore/hospital-api/internal/model"
)

func testUser() *model.User {
	return &model.User{
		Base:     model.Base{ID: uuid.New()},
		Email:    "doctor@example.com",
		RoleName: model.RoleDoctor,
	}
}

func testService() JWTService {
	return NewJWTService(Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := testService()
	user := testUser()

	token, err := svc.GenerateAccessToken(user, []string{model.PermPatientsRead})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, model.RoleDoctor, claims.Role)
	assert.Equal(t, []string{model.PermPatientsRead}, claims.Permissions)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := testService()
	user := testUser()

	token, expiresAt, err := svc.GenerateRefreshToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestTokenKindsUseSeparateSecrets(t *testing.T) {
	svc := testService()
	user := testUser()

	access, err := svc.GenerateAccessToken(user, nil)
	require.NoError(t, err)
	refresh, _, err := svc.GenerateRefreshToken(user)
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(access)
	assert.Error(t, err)
	_, err = svc.ValidateAccessToken(refresh)
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	user := testUser()

	token, err := testService().GenerateAccessToken(user, nil)
	require.NoError(t, err)

	other := NewJWTService(Config{Secret: "different", RefreshSecret: "different"})
	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewJWTService(Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		Expiry:        -time.Minute,
	})

	token, err := svc.GenerateAccessToken(testUser(), nil)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestDefaultExpiries(t *testing.T) {
	svc := NewJWTService(Config{Secret: "s", RefreshSecret: "r"})
	assert.Equal(t, 15*time.Minute, svc.AccessExpiry())
}
