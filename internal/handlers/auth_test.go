package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"localserve/internal/models"
)

type authBody struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	ExpiresIn    int64             `json:"expiresIn"`
	User         LoginResponseUser `json:"user"`
}

func (e *testEnv) seedAccount(t *testing.T, email, password, role string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{Email: email, PasswordHash: string(hash), Name: "Asha", Role: role, IsActive: true}
	require.NoError(t, e.accounts.Create(context.Background(), &user))
	return user
}

func (e *testEnv) refresh(t *testing.T, token string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, request{method: http.MethodPost, path: "/auth/refresh", body: RefreshRequest{RefreshToken: token}})
}

func TestRegisterLoginRefresh(t *testing.T) {
	env := newTestEnv(t)
	reg := RegisterRequest{Email: "Asha@Example.com", Password: "correct-horse", Name: "Asha"}

	w := env.do(t, request{method: http.MethodPost, path: "/auth/register", body: reg})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	registered := decode[authBody](t, w)
	assert.Equal(t, "asha@example.com", registered.User.Email)
	assert.Equal(t, "user", registered.User.Role)
	assert.Equal(t, int64(3600), registered.ExpiresIn)

	w = env.do(t, request{method: http.MethodPost, path: "/auth/register", body: reg})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, request{method: http.MethodPost, path: "/auth/login",
		body: LoginRequest{Email: "asha@example.com", Password: "wrong-horse"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, request{method: http.MethodPost, path: "/auth/login",
		body: LoginRequest{Email: "ASHA@example.com", Password: "correct-horse"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[authBody](t, w)

	w = env.do(t, request{method: http.MethodGet, path: "/auth/me",
		headers: map[string]string{"Authorization": "Bearer " + login.AccessToken}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "asha@example.com", decode[models.User](t, w).Email)

	w = env.refresh(t, login.RefreshToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshed := decode[authBody](t, w)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
}

func TestRefreshReuseRevokesEveryToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedAccount(t, "asha@example.com", "correct-horse", "user")

	w := env.do(t, request{method: http.MethodPost, path: "/auth/login",
		body: LoginRequest{Email: "asha@example.com", Password: "correct-horse"}})
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[authBody](t, w).RefreshToken

	w = env.do(t, request{method: http.MethodPost, path: "/auth/login",
		body: LoginRequest{Email: "asha@example.com", Password: "correct-horse"}})
	require.Equal(t, http.StatusOK, w.Code)
	other := decode[authBody](t, w).RefreshToken

	w = env.do(t, request{method: http.MethodPost, path: "/auth/refresh", body: RefreshRequest{RefreshToken: first}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := decode[authBody](t, w).RefreshToken
	assert.Equal(t, 2, env.tokens.active(user.ID))

	assert.Equal(t, http.StatusUnauthorized, env.refresh(t, first).Code)
	assert.Zero(t, env.tokens.active(user.ID))

	assert.Equal(t, http.StatusUnauthorized, env.refresh(t, rotated).Code)
	assert.Equal(t, http.StatusUnauthorized, env.refresh(t, other).Code)
}

func TestRefreshRejectsUnknownAndExpiredTokens(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedAccount(t, "asha@example.com", "correct-horse", "user")

	assert.Equal(t, http.StatusUnauthorized, env.refresh(t, "not-a-token").Code)

	plain := "expired-token"
	require.NoError(t, env.tokens.Insert(context.Background(), &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(plain),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
	assert.Equal(t, http.StatusUnauthorized, env.refresh(t, plain).Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, request{method: http.MethodPost, path: "/auth/register",
		body: RegisterRequest{Email: "asha@example.com", Password: "correct-horse", Name: "Asha"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := decode[authBody](t, w).RefreshToken

	w = env.do(t, request{method: http.MethodPost, path: "/auth/logout", body: RefreshRequest{RefreshToken: token}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, request{method: http.MethodPost, path: "/auth/logout", body: RefreshRequest{RefreshToken: token}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, http.StatusUnauthorized, env.refresh(t, token).Code)
}

func TestAdminLoginRequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, "user@example.com", "correct-horse", "user")
	env.seedAccount(t, "admin@example.com", "correct-horse", "admin")

	w := env.do(t, request{method: http.MethodPost, path: "/admin/login",
		body: LoginRequest{Email: "user@example.com", Password: "correct-horse"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, request{method: http.MethodPost, path: "/admin/login",
		body: LoginRequest{Email: "admin@example.com", Password: "correct-horse"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	admin := decode[authBody](t, w)
	assert.Equal(t, "admin", admin.User.Role)

	w = env.do(t, request{method: http.MethodGet, path: "/admin/api/me",
		headers: map[string]string{"Authorization": "Bearer " + admin.AccessToken}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedAccount(t, "asha@example.com", "correct-horse", "user")
	user.IsActive = false
	env.accounts.accounts[user.ID] = user

	w := env.do(t, request{method: http.MethodPost, path: "/auth/login",
		body: LoginRequest{Email: "asha@example.com", Password: "correct-horse"}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetMeSeparatesMissingFromFailure(t *testing.T) {
	env := newTestEnv(t)
	_, auth := env.addUser(t, "user")
	headers := map[string]string{"Authorization": auth}

	w := env.do(t, request{method: http.MethodGet, path: "/auth/me", headers: headers})
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.accounts.findErr = errors.New("connection reset")
	w = env.do(t, request{method: http.MethodGet, path: "/auth/me", headers: headers})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
