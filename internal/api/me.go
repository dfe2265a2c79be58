package api

import (
	"net/http"

	"github.com/xintone/xintone/internal/server"
	"github.com/xintone/xintone/pkg/auth"
)

type MeGetResponse struct {
	Authenticated bool           `json:"authenticated"`
	User          *auth.Identity `json:"user,omitempty"`
	IsAdmin       bool           `json:"isAdmin"`
}

// adminRole is the role name the front end treats as administrator.
const adminRole = "admin"

// MeHandler returns the caller's identity. It is mounted behind optional
// authentication, so an anonymous caller gets authenticated=false.
func MeHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			w.Header().Set("Allow", "GET")
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed", false)
			return
		}

		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			respondJSON(w, http.StatusOK, MeGetResponse{})
			return
		}

		role := srv.Config.Auth.RequiredRole
		if role == "" {
			role = adminRole
		}

		respondJSON(w, http.StatusOK, MeGetResponse{
			Authenticated: true,
			User:          id,
			IsAdmin:       auth.Authorize(id, role) == nil,
		})
	})
}
