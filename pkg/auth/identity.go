package auth

import (
	"context"
	"errors"
	"strings"
)

// Identity is the verified caller of a request. It lives only in the
// request context.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

var (
	// ErrMissingToken means no usable bearer token was sent.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken means the provider rejected the token or returned no
	// user for it.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthenticated means an operation needed an identity and there
	// was none.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the identity lacks the required role.
	ErrForbidden = errors.New("forbidden")
)

type identityContextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the identity stored in ctx, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*Identity)
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}

const bearerPrefix = "Bearer "

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", ErrMissingToken
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", ErrMissingToken
	}

	return token, nil
}
