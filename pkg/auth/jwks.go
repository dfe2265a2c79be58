package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
)

// JWKSConfig configures validation of asymmetrically signed access tokens
// against the provider's published key set.
type JWKSConfig struct {
	// JWKSURL is the key set endpoint. Defaults to the project's
	// "/auth/v1/.well-known/jwks.json".
	JWKSURL string

	// Issuer must match the "iss" claim.
	Issuer string

	// Audience, if set, must be present in the "aud" claim.
	Audience string

	// SigningAlgs defaults to RS256 and ES256.
	SigningAlgs []string
}

// JWKSConfigForSupabase derives a JWKSConfig from a project config.
func JWKSConfigForSupabase(cfg *SupabaseConfig, audience string) JWKSConfig {
	return JWKSConfig{
		JWKSURL:  cfg.issuer() + "/.well-known/jwks.json",
		Issuer:   cfg.issuer(),
		Audience: audience,
	}
}

// JWKSVerifier validates tokens with keys fetched (and cached) from a JWKS
// endpoint.
type JWKSVerifier struct {
	verifier *oidc.IDTokenVerifier
}

var _ Verifier = (*JWKSVerifier)(nil)

// NewJWKSVerifier creates a JWKSVerifier. Keys are fetched lazily with
// httpClient (or http.DefaultClient when nil).
func NewJWKSVerifier(cfg JWKSConfig, httpClient *http.Client) (*JWKSVerifier, error) {
	if cfg.JWKSURL == "" {
		return nil, fmt.Errorf("jwks url is required")
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("issuer is required")
	}

	algs := cfg.SigningAlgs
	if len(algs) == 0 {
		algs = []string{oidc.RS256, oidc.ES256}
	}

	ctx := context.Background()
	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}
	keySet := oidc.NewRemoteKeySet(ctx, cfg.JWKSURL)

	return &JWKSVerifier{
		verifier: oidc.NewVerifier(cfg.Issuer, keySet, &oidc.Config{
			ClientID:             cfg.Audience,
			SkipClientIDCheck:    cfg.Audience == "",
			SupportedSigningAlgs: algs,
		}),
	}, nil
}

// Verify implements Verifier.
func (v *JWKSVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := map[string]interface{}{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return identityFromClaims(claims)
}
