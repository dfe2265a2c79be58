package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
)

// Authorize checks that id holds role.
func Authorize(id *Identity, role string) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if id.Role != role {
		return fmt.Errorf("role %q required, user has %q: %w", role, id.Role, ErrForbidden)
	}
	return nil
}

// RequireRole gates next on the identity stored by Middleware holding role.
func RequireRole(role string, logger hclog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFromContext(r.Context())

			if err := Authorize(id, role); err != nil {
				if errors.Is(err, ErrUnauthenticated) {
					writeError(w, http.StatusUnauthorized,
						"Unauthorized: Authentication required")
					return
				}
				logger.Warn("role check failed",
					"user_id", id.ID,
					"required_role", role,
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeError(w, http.StatusForbidden,
					fmt.Sprintf("Forbidden: %s role required", role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
