package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teampulse/pkg/domain"
	dErrors "teampulse/pkg/domain-errors"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "teampulse")
	userID := domain.NewUserID()

	token, err := svc.GenerateAccessToken(userID, domain.RoleManager, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "manager", claims.Role)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "teampulse")

	token, err := svc.GenerateAccessToken(domain.NewUserID(), domain.RoleEmployee, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateTokenWrongKey(t *testing.T) {
	issuer := NewJWTService("key-one", "teampulse")
	verifier := NewJWTService("key-two", "teampulse")

	token, err := issuer.GenerateAccessToken(domain.NewUserID(), domain.RoleAdmin, time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateGarbageToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "teampulse")
	_, err := svc.ValidateToken("not.a.jwt")
	assert.Error(t, err)
}
