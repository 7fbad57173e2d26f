package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/osmium8/reviews-backend/internal/auth"
	"github.com/osmium8/reviews-backend/internal/domain"
)

func TestRequireAdmin_PublicRoutesNeedNoToken(t *testing.T) {
	a := newTestApp(t)
	cat := a.category(t, "Phones")
	p := a.product(t, domain.Product{Code: "P1"})

	for _, path := range []string{
		api + "/products",
		api + "/products/" + p.ID,
		api + "/categories",
		api + "/categories/" + cat.ID,
		api + "/reviews",
		api + "/users",
		"/healthz",
		"/metrics",
	} {
		resp := a.get(t, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestRequireAdmin_ProtectedRoutes(t *testing.T) {
	a := newTestApp(t)
	expired, err := auth.NewManager("test-secret", -time.Minute).Issue(primitive.NewObjectID().Hex(), true)
	require.NoError(t, err)
	forged, err := auth.NewManager("other-secret", time.Hour).Issue(primitive.NewObjectID().Hex(), true)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"non-admin token", a.userToken(t), http.StatusUnauthorized},
		{"expired token", expired, http.StatusUnauthorized},
		{"wrong signature", forged, http.StatusUnauthorized},
		{"admin token", a.adminToken(t), http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := a.sendJSON(t, http.MethodPost, api+"/categories", map[string]any{"name": "Laptops"}, tt.token)
			require.Equal(t, tt.want, resp.StatusCode)
			if tt.want == http.StatusUnauthorized {
				body := decode[map[string]any](t, resp)
				assert.Equal(t, "UNAUTHORIZED", body["code"])
				assert.NotEmpty(t, body["message"])
			}
		})
	}
}

func TestRequireAdmin_MethodScopedExemptions(t *testing.T) {
	a := newTestApp(t)
	p := a.product(t, domain.Product{Code: "P1"})

	// DELETE is never exempt, even under a public prefix.
	resp := a.do(t, httptest.NewRequest(http.MethodDelete, api+"/products/"+p.ID, nil), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.do(t, httptest.NewRequest(http.MethodPost, api+"/users", nil), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Reviews allow PUT without a token.
	rv := a.review(t, p.ID, 4, false)
	resp = a.sendJSON(t, http.MethodPut, api+"/reviews/"+rv.ID, map[string]any{"isApproved": true}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireAdmin_ExemptionsFollowRouterMatching(t *testing.T) {
	a := newTestApp(t)

	body := map[string]any{"name": "Alice", "email": "alice@example.test", "password": strongPassword}
	resp := a.sendJSON(t, http.MethodPost, api+"/Users/Register/", body, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	creds := map[string]any{"email": "alice@example.test", "password": strongPassword}
	resp = a.sendJSON(t, http.MethodPost, api+"/users/login/", creds, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decode[map[string]any](t, resp)["token"])

	// folding never widens the method set of an exemption
	resp = a.sendJSON(t, http.MethodPost, api+"/Categories/", map[string]any{"name": "Laptops"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAdmin_LogsDenials(t *testing.T) {
	a := newTestApp(t)
	tok := a.userToken(t)
	claims, err := a.tokens.Verify(tok)
	require.NoError(t, err)

	entries := captureLogs(t, func() {
		a.sendJSON(t, http.MethodDelete, api+"/categories/"+primitive.NewObjectID().Hex(), nil, tok)
	})
	e, ok := findLog(entries, "access.denied.admin")
	require.True(t, ok, "access.denied.admin not logged")
	assert.Equal(t, "warn", e.Level)
	assert.Equal(t, claims.UserID, e.UserID)

	entries = captureLogs(t, func() {
		a.sendJSON(t, http.MethodDelete, api+"/categories/"+primitive.NewObjectID().Hex(), nil, "")
	})
	_, ok = findLog(entries, "access.denied.no_token")
	assert.True(t, ok, "access.denied.no_token not logged")
}
