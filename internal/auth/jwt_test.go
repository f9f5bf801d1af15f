package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(cfg config.AuthConfig) *auth.JWTValidator {
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "test-secret-that-is-long-enough"
	}
	return auth.NewJWTValidator(&cfg)
}

func TestJWTValidator_RoundTrip(t *testing.T) {
	v := newValidator(config.AuthConfig{Issuer: "crm", Audience: "crm-api", RequiredScopes: "crm.access"})
	userID := uuid.New()

	token, err := v.SignToken(userID, "rep@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "rep@example.com", claims.Email)
}

func TestJWTValidator_Rejects(t *testing.T) {
	v := newValidator(config.AuthConfig{})
	userID := uuid.New()

	t.Run("expired", func(t *testing.T) {
		token, err := v.SignToken(userID, "", -time.Minute)
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := newValidator(config.AuthConfig{JWTSecret: "another-secret-value"})
		token, err := other.SignToken(userID, "", time.Hour)
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		strict := newValidator(config.AuthConfig{Issuer: "crm"})
		token, err := v.SignToken(userID, "", time.Hour)
		require.NoError(t, err)
		_, err = strict.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("missing scope", func(t *testing.T) {
		scoped := newValidator(config.AuthConfig{RequiredScopes: "crm.access"})
		token, err := v.SignToken(userID, "", time.Hour)
		require.NoError(t, err)
		_, err = scoped.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidScope)
	})

	t.Run("subject is not a uuid", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "someone",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("test-secret-that-is-long-enough"))
		require.NoError(t, err)
		_, err = v.ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("no secret configured", func(t *testing.T) {
		empty := auth.NewJWTValidator(&config.AuthConfig{})
		_, err := empty.ValidateToken("anything")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestHasRequiredScope(t *testing.T) {
	assert.True(t, auth.HasRequiredScope(nil, ""))
	assert.True(t, auth.HasRequiredScope([]string{"a", "CRM.Access"}, "crm.access"))
	assert.True(t, auth.HasRequiredScope([]string{"b"}, "a, b"))
	assert.False(t, auth.HasRequiredScope([]string{"c"}, "a,b"))
}

func TestExtractScopes(t *testing.T) {
	scopes := auth.ExtractScopes(jwt.MapClaims{"scp": "a b", "scope": "c"})
	assert.Equal(t, []string{"a", "b", "c"}, scopes)
}
