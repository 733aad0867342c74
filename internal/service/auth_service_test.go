package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mis-educa-api/internal/models"
	appErrors "github.com/noah-isme/mis-educa-api/pkg/errors"
)

func newTestAuthService() *AuthService {
	return NewAuthService(nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "mis-educa-api"})
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newTestAuthService()

	token, expiresAt, err := svc.IssueToken(IssueTokenRequest{FullName: "Maria Souza", Role: "teacher"})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "Maria Souza", claims.FullName)
	assert.NotEmpty(t, claims.UserID)
}

func TestAuthServiceRejectsForeignSecret(t *testing.T) {
	other := NewAuthService(nil, nil, AuthConfig{AccessTokenSecret: "other", Issuer: "mis-educa-api"})
	token, _, err := other.IssueToken(IssueTokenRequest{FullName: "X", Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = newTestAuthService().ValidateToken(token)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	svc := newTestAuthService()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.IssueToken(IssueTokenRequest{FullName: "X", Role: models.RoleAdmin})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC() }
	_, err = svc.ValidateToken(token)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceIssueValidatesRole(t *testing.T) {
	_, _, err := newTestAuthService().IssueToken(IssueTokenRequest{FullName: "X", Role: "janitor"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = newTestAuthService().IssueToken(IssueTokenRequest{Role: models.RoleAdmin})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}
