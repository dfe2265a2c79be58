package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hashicorp/go-hclog"
)

// Policy decides what happens when authentication fails.
type Policy int

const (
	// Required rejects the request with 401.
	Required Policy = iota

	// Optional lets the request through without an identity.
	Optional
)

func (p Policy) String() string {
	if p == Optional {
		return "optional"
	}
	return "required"
}

// Middleware authenticates the Authorization header with v and stores the
// identity in the request context.
//
// Error responses never include provider details.
func Middleware(v Verifier, logger hclog.Logger, policy Policy) func(http.Handler) http.Handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logArgs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"policy", policy.String(),
			}

			id, err := Authenticate(r.Context(), v, r.Header.Get("Authorization"))
			if err != nil {
				if policy == Optional {
					if !errors.Is(err, ErrMissingToken) {
						logger.Debug("optional authentication failed",
							append([]any{"error", err}, logArgs...)...)
					}
					next.ServeHTTP(w, r)
					return
				}

				switch {
				case errors.Is(err, ErrMissingToken):
					logger.Warn("missing bearer token", logArgs...)
					writeError(w, http.StatusUnauthorized, "Unauthorized: No token provided")
				case errors.Is(err, ErrInvalidToken):
					logger.Warn("invalid bearer token",
						append([]any{"error", err}, logArgs...)...)
					writeError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
				default:
					logger.Error("error verifying bearer token",
						append([]any{"error", err}, logArgs...)...)
					writeError(w, http.StatusUnauthorized, "Unauthorized: Authentication failed")
				}
				return
			}

			logger.Debug("authenticated request",
				append([]any{"user_id", id.ID}, logArgs...)...)

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
