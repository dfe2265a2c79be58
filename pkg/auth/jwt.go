package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mitchellh/mapstructure"
)

// JWTConfig configures local validation of HS256 access tokens signed with
// the project's JWT secret.
type JWTConfig struct {
	Secret string

	// Issuer, if set, must match the "iss" claim.
	Issuer string

	// Audience, if set, must be present in the "aud" claim.
	Audience string
}

// JWTVerifier validates tokens locally without calling the provider.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

var _ Verifier = (*JWTVerifier)(nil)

// NewJWTVerifier creates a JWTVerifier.
func NewJWTVerifier(cfg JWTConfig) (*JWTVerifier, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &JWTVerifier{
		secret: []byte(cfg.Secret),
		parser: jwt.NewParser(opts...),
	}, nil
}

// Verify implements Verifier.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return identityFromClaims(claims)
}

// tokenClaims are the access token claims an Identity is built from.
type tokenClaims struct {
	Subject string `mapstructure:"sub"`
	Email   string `mapstructure:"email"`
	Role    string `mapstructure:"role"`
}

func identityFromClaims(claims map[string]interface{}) (*Identity, error) {
	var tc tokenClaims
	if err := mapstructure.Decode(claims, &tc); err != nil {
		return nil, fmt.Errorf("%w: malformed claims: %v", ErrInvalidToken, err)
	}
	if tc.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}

	return &Identity{
		ID:    tc.Subject,
		Email: tc.Email,
		Role:  tc.Role,
	}, nil
}
