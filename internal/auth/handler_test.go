package auth_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workzen-hq/workzen/internal/auth"
	"github.com/workzen-hq/workzen/internal/shared"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := auth.NewTokenService(auth.NewRedisTokenStore(client), "test-secret", 30*time.Minute)
	service := auth.NewService(auth.NewMemoryRepository(), tokens)
	handler := auth.NewHandler(discardLogger(), service)
	guard := auth.Middleware{Tokens: tokens}

	r := chi.NewRouter()
	r.Route("/api/auth", handler.MountRoutes)
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireRoles(shared.RoleAdmin))
		r.Get("/api/admin/users", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return res
}

func decodeToken(t *testing.T, res *http.Response) auth.TokenResponse {
	t.Helper()
	defer res.Body.Close()
	var token auth.TokenResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&token))
	return token
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	// Signup succeeds and returns a bearer token.
	res := postJSON(t, srv.URL+"/api/auth/signup", map[string]string{
		"email": "a@x.com", "password": "p", "name": "A", "role": "employee",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	signupToken := decodeToken(t, res)
	assert.Equal(t, "bearer", signupToken.TokenType)
	assert.Equal(t, "employee", signupToken.Role)
	assert.Equal(t, 1800, signupToken.ExpiresIn)
	assert.NotEmpty(t, signupToken.AccessToken)

	// Wrong password yields a generic 401.
	res = postJSON(t, srv.URL+"/api/auth/login", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&problem))
	res.Body.Close()
	assert.Equal(t, "Unauthenticated", problem.Title)
	assert.NotContains(t, problem.Detail, "password was wrong")

	// Correct credentials log in with the signup role.
	res = postJSON(t, srv.URL+"/api/auth/login", map[string]string{
		"email": "a@x.com", "password": "p",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	loginToken := decodeToken(t, res)
	assert.Equal(t, "employee", loginToken.Role)
	assert.Equal(t, signupToken.UserID, loginToken.UserID)

	// An employee token on an admin-only route is forbidden, not unauthorized.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/admin/users", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+loginToken.AccessToken)
	adminRes, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	adminRes.Body.Close()
	assert.Equal(t, http.StatusForbidden, adminRes.StatusCode)
}

func TestSignupRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)

	res := postJSON(t, srv.URL+"/api/auth/signup", map[string]string{
		"email": "b@x.com", "password": "p", "name": "B", "role": "warlord",
	})
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = postJSON(t, srv.URL+"/api/auth/signup", map[string]string{
		"email": "b@x.com", "password": "p",
	})
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSignupDuplicateEmailIs400(t *testing.T) {
	srv := newTestServer(t)

	res := postJSON(t, srv.URL+"/api/auth/signup", map[string]string{
		"email": "c@x.com", "password": "p", "name": "C", "role": "hr_officer",
	})
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = postJSON(t, srv.URL+"/api/auth/signup", map[string]string{
		"email": "c@x.com", "password": "p", "name": "C2", "role": "hr_officer",
	})
	res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestLogoutIsIdempotent(t *testing.T) {
	srv := newTestServer(t)

	res := postJSON(t, srv.URL+"/api/auth/signup", map[string]string{
		"email": "d@x.com", "password": "p", "name": "D", "role": "admin",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	token := decodeToken(t, res)

	logout := func() int {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/auth/logout", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		res.Body.Close()
		return res.StatusCode
	}
	assert.Equal(t, http.StatusOK, logout())
	assert.Equal(t, http.StatusOK, logout())

	// Logout without a token still succeeds.
	res, err := http.Post(srv.URL+"/api/auth/logout", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestValidateTokenEndpoint(t *testing.T) {
	srv := newTestServer(t)

	res := postJSON(t, srv.URL+"/api/auth/signup", map[string]string{
		"email": "e@x.com", "password": "p", "name": "E", "role": "payroll_officer",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	token := decodeToken(t, res)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/validate-token", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	validateRes, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer validateRes.Body.Close()
	require.Equal(t, http.StatusOK, validateRes.StatusCode)

	var body struct {
		Valid  bool   `json:"valid"`
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	require.NoError(t, json.NewDecoder(validateRes.Body).Decode(&body))
	assert.True(t, body.Valid)
	assert.Equal(t, token.UserID, body.UserID)
	assert.Equal(t, "payroll_officer", body.Role)
}
