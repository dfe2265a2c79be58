package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTVerifier(t *testing.T) {
	v, err := NewJWTVerifier(JWTConfig{
		Secret:   testSecret,
		Audience: "authenticated",
	})
	require.NoError(t, err)

	ctx := context.Background()
	future := time.Now().Add(time.Hour).Unix()

	t.Run("valid token", func(t *testing.T) {
		token := signHS256(t, testSecret, jwt.MapClaims{
			"sub":   "user-1",
			"email": "user@example.com",
			"role":  "authenticated",
			"aud":   "authenticated",
			"exp":   future,
		})

		id, err := v.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, &Identity{ID: "user-1", Email: "user@example.com", Role: "authenticated"}, id)
	})

	tests := []struct {
		name   string
		secret string
		claims jwt.MapClaims
	}{
		{
			name:   "wrong secret",
			secret: "another-secret-another-secret-another",
			claims: jwt.MapClaims{"sub": "u", "aud": "authenticated", "exp": future},
		},
		{
			name:   "expired",
			secret: testSecret,
			claims: jwt.MapClaims{"sub": "u", "aud": "authenticated", "exp": time.Now().Add(-time.Hour).Unix()},
		},
		{
			name:   "no expiry",
			secret: testSecret,
			claims: jwt.MapClaims{"sub": "u", "aud": "authenticated"},
		},
		{
			name:   "wrong audience",
			secret: testSecret,
			claims: jwt.MapClaims{"sub": "u", "aud": "anon", "exp": future},
		},
		{
			name:   "no subject",
			secret: testSecret,
			claims: jwt.MapClaims{"aud": "authenticated", "exp": future},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(ctx, signHS256(t, tt.secret, tt.claims))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewJWTVerifierRequiresSecret(t *testing.T) {
	_, err := NewJWTVerifier(JWTConfig{})
	assert.Error(t, err)
}
