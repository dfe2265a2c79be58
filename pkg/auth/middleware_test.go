package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubVerifier accepts "good" and "admin", fails "broken" with a transport
// style error and rejects everything else.
type stubVerifier struct {
	calls int
}

func (s *stubVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	s.calls++
	switch token {
	case "good":
		return &Identity{ID: "user-1", Email: "user@example.com", Role: "authenticated"}, nil
	case "admin":
		return &Identity{ID: "user-2", Role: "admin"}, nil
	case "broken":
		return nil, errors.New("dial tcp: connection refused")
	case "nouser":
		return &Identity{}, nil
	default:
		return nil, ErrInvalidToken
	}
}

func TestParseBearer(t *testing.T) {
	tests := []struct {
		header  string
		token   string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"Bearer   abc  ", "abc", false},
		{"", "", true},
		{"Basic abc", "", true},
		{"bearer abc", "", true},
		{"Bearer ", "", true},
	}

	for _, tt := range tests {
		token, err := ParseBearer(tt.header)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrMissingToken, "header %q", tt.header)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.token, token)
	}
}

func TestAuthenticate(t *testing.T) {
	v := &stubVerifier{}
	ctx := context.Background()

	id, err := Authenticate(ctx, v, "Bearer good")
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.ID)

	_, err = Authenticate(ctx, v, "")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = Authenticate(ctx, v, "Bearer nope")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = Authenticate(ctx, v, "Bearer nouser")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	logger := hclog.NewNullLogger()

	newHandler := func(v Verifier, policy Policy) (http.Handler, *bool, **Identity) {
		called := false
		var seen *Identity
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			seen, _ = IdentityFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})
		return Middleware(v, logger, policy)(next), &called, &seen
	}

	t.Run("required rejects missing header", func(t *testing.T) {
		v := &stubVerifier{}
		handler, called, _ := newHandler(v, Required)

		req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "No token provided")
		assert.False(t, *called)
		assert.Zero(t, v.calls)
	})

	t.Run("required rejects invalid token", func(t *testing.T) {
		handler, called, _ := newHandler(&stubVerifier{}, Required)

		req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
		req.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Unauthorized: Invalid token"}`, w.Body.String())
		assert.False(t, *called)
	})

	t.Run("required hides provider failures", func(t *testing.T) {
		handler, called, _ := newHandler(&stubVerifier{}, Required)

		req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
		req.Header.Set("Authorization", "Bearer broken")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
		assert.Contains(t, w.Body.String(), "Authentication failed")
		assert.False(t, *called)
	})

	t.Run("required stores identity", func(t *testing.T) {
		handler, called, seen := newHandler(&stubVerifier{}, Required)

		req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, *called)
		require.NotNil(t, *seen)
		assert.Equal(t, "user@example.com", (*seen).Email)
	})

	t.Run("optional passes through failures without identity", func(t *testing.T) {
		for _, header := range []string{"", "Bearer nope", "Bearer broken"} {
			handler, called, seen := newHandler(&stubVerifier{}, Optional)

			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code, "header %q", header)
			assert.True(t, *called)
			assert.Nil(t, *seen)
		}
	})

	t.Run("optional stores identity when valid", func(t *testing.T) {
		handler, _, seen := newHandler(&stubVerifier{}, Optional)

		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.NotNil(t, *seen)
		assert.Equal(t, "user-1", (*seen).ID)
	})
}

func TestAuthorize(t *testing.T) {
	assert.ErrorIs(t, Authorize(nil, "admin"), ErrUnauthenticated)
	assert.ErrorIs(t, Authorize(&Identity{ID: "u", Role: "authenticated"}, "admin"), ErrForbidden)
	assert.ErrorIs(t, Authorize(&Identity{ID: "u"}, "admin"), ErrForbidden)
	assert.NoError(t, Authorize(&Identity{ID: "u", Role: "admin"}, "admin"))
}

func TestRequireRole(t *testing.T) {
	logger := hclog.NewNullLogger()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	gated := Middleware(&stubVerifier{}, logger, Required)(RequireRole("admin", logger)(next))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no identity", "", http.StatusUnauthorized},
		{"wrong role", "Bearer good", http.StatusForbidden},
		{"admin", "Bearer admin", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/records", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			gated.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	t.Run("gate alone without identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		RequireRole("admin", logger)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authentication required")
	})

	t.Run("forbidden message names role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithIdentity(req.Context(), &Identity{ID: "u"}))
		w := httptest.NewRecorder()
		RequireRole("admin", logger)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"Forbidden: admin role required"}`, w.Body.String())
	})
}
