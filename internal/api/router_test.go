package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t, nil)

	w := do(h, "GET", "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	ts, err := time.Parse(time.RFC3339Nano, resp.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestHealthTimestampFormat(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("JST", 9*60*60))
	w := httptest.NewRecorder()
	HealthHandler(func() time.Time { return fixed }).
		ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2024-03-01T00:30:00.000Z", resp.Timestamp)
}

func TestMe(t *testing.T) {
	h, _ := newTestServer(t, nil)

	t.Run("anonymous", func(t *testing.T) {
		w := do(h, "GET", "/api/me", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"authenticated":false,"isAdmin":false}`, w.Body.String())
	})

	t.Run("invalid token is treated as anonymous", func(t *testing.T) {
		w := do(h, "GET", "/api/me", "", withBearer("bogus"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"authenticated":false,"isAdmin":false}`, w.Body.String())
	})

	t.Run("member", func(t *testing.T) {
		w := do(h, "GET", "/api/me", "", withBearer("user-token"))
		require.Equal(t, http.StatusOK, w.Code)

		var resp MeGetResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Authenticated)
		require.NotNil(t, resp.User)
		assert.Equal(t, "user-1", resp.User.ID)
		assert.False(t, resp.IsAdmin)
	})

	t.Run("admin", func(t *testing.T) {
		w := do(h, "GET", "/api/me", "", withBearer("admin-token"))
		require.Equal(t, http.StatusOK, w.Code)

		var resp MeGetResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.IsAdmin)
	})
}

func TestRequestID(t *testing.T) {
	h, _ := newTestServer(t, nil)

	w := do(h, "GET", "/health", "")
	assert.Len(t, w.Header().Get(requestIDHeader), 36)

	w = do(h, "GET", "/health", "", func(r *http.Request) {
		r.Header.Set(requestIDHeader, "client-chosen")
	})
	assert.Equal(t, "client-chosen", w.Header().Get(requestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer(t, nil)

	w := do(h, "OPTIONS", "/api/records", "", func(r *http.Request) {
		r.Header.Set("Origin", "https://app.example.com")
		r.Header.Set("Access-Control-Request-Method", "POST")
		r.Header.Set("Access-Control-Request-Headers", "Authorization, X-Kintone-API-Token")
	})

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRecovererReturnsJSON(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	recoverer(hclog.NewNullLogger())(panicking).
		ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestNotFound(t *testing.T) {
	h, _ := newTestServer(t, nil)

	w := do(h, "GET", "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
