package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ggeraldodequeiroz/minhas-financas-backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func newAuthTestRouter() (*chi.Mux, *memUserRepo) {
	repo := newMemUserRepo()
	userService := services.NewUserService(repo, plainHasher{})

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, testJWTSecret)
	})
	return router, repo
}

func doJSON(t *testing.T, router http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	router, repo := newAuthTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"name":"Guilherme","email":"g@example.com","password":"secret123"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "g@example.com", resp.User.Email)

	// The stored hash never leaks through the response.
	assert.NotContains(t, rec.Body.String(), "secret123")
	assert.Equal(t, "#secret123", repo.users[resp.User.ID].PasswordHash)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/auth/register",
			`{"name":"Other","email":"g@example.com","password":"pw"}`, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/auth/register",
			`{"email":"x@example.com"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	router, _ := newAuthTestRouter()
	rec := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"name":"Guilherme","email":"g@example.com","password":"secret123"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("valid credentials return a token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/auth/login",
			`{"email":"g@example.com","password":"secret123"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		unknown := doJSON(t, router, http.MethodPost, "/auth/login",
			`{"email":"nobody@example.com","password":"secret123"}`, nil)
		wrong := doJSON(t, router, http.MethodPost, "/auth/login",
			`{"email":"g@example.com","password":"bad"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	})
}

func TestMe(t *testing.T) {
	router, _ := newAuthTestRouter()
	rec := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"name":"Guilherme","email":"g@example.com","password":"secret123"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	t.Run("with a valid token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/auth/me", "",
			map[string]string{"Authorization": "Bearer " + resp.Token})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "g@example.com")
	})

	t.Run("without a token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("with a garbage token", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/auth/me", "",
			map[string]string{"Authorization": "Bearer nonsense"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
