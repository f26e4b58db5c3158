package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typingmaster/backend/internal/auth"
	"github.com/typingmaster/backend/internal/config"
	"github.com/typingmaster/backend/internal/domain"
	"github.com/typingmaster/backend/internal/websocket"
)

func testHandler() *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Handler{
		tokens: auth.NewTokenManager(&config.AuthConfig{Secret: "test-secret", TokenTTL: time.Hour}),
		hub:    websocket.NewHub(logger),
		logger: logger,
	}
}

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	h := testHandler()

	var gotUserID string
	protected := h.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = userIDFrom(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing header is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var resp APIResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Error)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong scheme is rejected", func(t *testing.T) {
		token, err := h.tokens.Issue("user-42")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token passes the user through", func(t *testing.T) {
		token, err := h.tokens.Issue("user-42")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "user-42", gotUserID)
	})
}

func TestCorsMiddleware(t *testing.T) {
	t.Parallel()

	next := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	next.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	// Preflight short-circuits
	rec = httptest.NewRecorder()
	next.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetWebSocketStats(t *testing.T) {
	t.Parallel()

	h := testHandler()
	rec := httptest.NewRecorder()
	h.GetWebSocketStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ws/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(0), data["total_connections"])

	subscribers, ok := data["subscribers"].(map[string]interface{})
	require.True(t, ok)
	require.Len(t, subscribers, len(domain.Periods))
	for _, period := range domain.Periods {
		assert.Equal(t, float64(0), subscribers[string(period)], "period=%s", period)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	h := testHandler()
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}
