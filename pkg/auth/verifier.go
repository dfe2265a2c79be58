package auth

import (
	"context"
	"fmt"
)

// Verifier turns a bearer token into an Identity.
//
// Implementations return an error wrapping ErrInvalidToken when the token
// is rejected; any other error means verification could not be completed.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, token string) (*Identity, error)

// Verify calls f(ctx, token).
func (f VerifierFunc) Verify(ctx context.Context, token string) (*Identity, error) {
	return f(ctx, token)
}

// Authenticate is the single verification path used for both required and
// optional authentication. Whether a failure is fatal is the caller's call.
func Authenticate(ctx context.Context, v Verifier, authHeader string) (*Identity, error) {
	token, err := ParseBearer(authHeader)
	if err != nil {
		return nil, err
	}

	id, err := v.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if id == nil || id.ID == "" {
		return nil, fmt.Errorf("provider returned no user: %w", ErrInvalidToken)
	}

	return id, nil
}
