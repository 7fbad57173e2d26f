package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const strongPassword = "Passw0rd!"

func register(t *testing.T, a *testApp, email string, extra map[string]any) *http.Response {
	t.Helper()
	body := map[string]any{"name": "Alice", "email": email, "password": strongPassword}
	for k, v := range extra {
		body[k] = v
	}
	return a.sendJSON(t, http.MethodPost, api+"/users/register", body, "")
}

func TestRegister_NeverGrantsAdmin(t *testing.T) {
	a := newTestApp(t)

	resp := register(t, a, "alice@example.test", map[string]any{"isAdmin": true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, false, body["isAdmin"])
	assert.NotContains(t, body, "passwordHash")
	assert.NotContains(t, body, "password")
}

func TestRegister_StoresBcryptHash(t *testing.T) {
	a := newTestApp(t)
	require.Equal(t, http.StatusCreated, register(t, a, "alice@example.test", nil).StatusCode)

	u, err := a.st.Users.ByEmail(context.Background(), "alice@example.test")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.Hash, "$2"), "unexpected hash format %q", u.Hash)
	assert.NotContains(t, u.Hash, strongPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(strongPassword)))
}

func TestRegister_Rejections(t *testing.T) {
	a := newTestApp(t)
	require.Equal(t, http.StatusCreated, register(t, a, "alice@example.test", nil).StatusCode)

	resp := register(t, a, "ALICE@example.test", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_EXISTS", decode[map[string]any](t, resp)["code"])

	resp = register(t, a, "bob@example.test", map[string]any{"password": "weak"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = register(t, a, "not-an-email", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "INVALID_INPUT", body["code"])
	assert.Contains(t, body["fields"], "email")
}

func TestLogin_IssuesTokenCarryingAdminFlag(t *testing.T) {
	a := newTestApp(t)
	regResp := register(t, a, "alice@example.test", nil)
	require.Equal(t, http.StatusCreated, regResp.StatusCode)
	user := decode[map[string]any](t, regResp)

	resp := a.sendJSON(t, http.MethodPost, api+"/users/login",
		map[string]any{"email": "alice@example.test", "password": strongPassword}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "alice@example.test", body["user"])

	claims, err := a.tokens.Verify(body["token"])
	require.NoError(t, err)
	assert.Equal(t, user["id"], claims.UserID)
	assert.False(t, claims.IsAdmin)

	// The token of a non-admin cannot reach admin routes.
	resp = a.sendJSON(t, http.MethodPost, api+"/categories", map[string]any{"name": "X"}, body["token"])
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_BadCredentialsLookTheSame(t *testing.T) {
	a := newTestApp(t)
	require.Equal(t, http.StatusCreated, register(t, a, "alice@example.test", nil).StatusCode)

	for _, creds := range []map[string]any{
		{"email": "alice@example.test", "password": "Wrong-pass1"},
		{"email": "nobody@example.test", "password": strongPassword},
	} {
		resp := a.sendJSON(t, http.MethodPost, api+"/users/login", creds, "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid email or password", decode[map[string]any](t, resp)["message"])
	}
}

func TestLogin_Throttled(t *testing.T) {
	a := newTestApp(t)
	creds := map[string]any{"email": "nobody@example.test", "password": strongPassword}

	for i := 0; i < 5; i++ {
		resp := a.sendJSON(t, http.MethodPost, api+"/users/login", creds, "")
		require.NotEqual(t, http.StatusTooManyRequests, resp.StatusCode, "throttled too early at %d", i)
	}
	resp := a.sendJSON(t, http.MethodPost, api+"/users/login", creds, "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", decode[map[string]any](t, resp)["code"])
}

func TestLogin_Logging(t *testing.T) {
	a := newTestApp(t)
	require.Equal(t, http.StatusCreated, register(t, a, "alice@example.test", nil).StatusCode)

	login := func(pass string) []logEntry {
		return captureLogs(t, func() {
			a.sendJSON(t, http.MethodPost, api+"/users/login",
				map[string]any{"email": "alice@example.test", "password": pass}, "")
		})
	}

	e, ok := findLog(login("Wrong-pass1"), "auth.login.fail")
	require.True(t, ok, "auth.login.fail not logged")
	assert.Equal(t, "warn", e.Level)
	assert.Contains(t, e.Fields, "email")

	e, ok = findLog(login(strongPassword), "auth.login.success")
	require.True(t, ok, "auth.login.success not logged")
	assert.Equal(t, "audit", e.Level)
	assert.Contains(t, e.Fields, "email")
	assert.NotContains(t, e.Fields, "password")
}
