package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payflow/internal/auth"
	"payflow/internal/repository/sqlite"
	"payflow/internal/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, *auth.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "payflow_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	accounts := sqlite.NewAccountRepository(db)
	require.NoError(t, users.Init(context.Background()))
	require.NoError(t, accounts.Init(context.Background()))

	tokens := auth.NewTokenManager("test-secret", 0)
	svc := service.NewUserService(users, accounts, tokens, 10000)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	router := gin.New()
	NewHandler(svc, tokens, logger).RegisterRoutes(router)
	return router, tokens
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func signupBody(username string) map[string]string {
	return map[string]string{
		"username":  username,
		"password":  "pw",
		"firstName": "Ann",
		"lastName":  "Archer",
	}
}

func TestSignupValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "not an email", body: map[string]string{"username": "not-an-email", "password": "pw", "firstName": "A", "lastName": "B"}},
		{name: "missing password", body: map[string]string{"username": "a@x.com", "firstName": "A", "lastName": "B"}},
		{name: "missing first name", body: map[string]string{"username": "a@x.com", "password": "pw", "lastName": "B"}},
		{name: "missing last name", body: map[string]string{"username": "a@x.com", "password": "pw", "firstName": "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/v1/user/signup", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSignupAndDuplicate(t *testing.T) {
	router, tokens := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/user/signup", "", signupBody("a@x.com"))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "user created successfully", body["message"])

	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	_, err := tokens.Verify(token)
	assert.NoError(t, err)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/user/signup", "", signupBody("a@x.com"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSigninFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/user/signup", "", signupBody("a@x.com"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/user/signin", "", map[string]string{"username": "ghost@x.com", "password": "pw"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/user/signin", "", map[string]string{"username": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/user/signin", "", map[string]string{"username": "a@x.com", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody(t, rec)["token"])
}

func TestAuthorizationGate(t *testing.T) {
	router, _ := newTestRouter(t)

	protected := []struct {
		method string
		path   string
		body   any
	}{
		{method: http.MethodGet, path: "/api/v1/user/me"},
		{method: http.MethodPut, path: "/api/v1/user", body: map[string]string{"firstName": "X"}},
		{method: http.MethodGet, path: "/api/v1/account/balance"},
	}
	for _, route := range protected {
		rec := doJSON(t, router, route.method, route.path, "", route.body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "missing token on %s %s", route.method, route.path)

		rec = doJSON(t, router, route.method, route.path, "garbage-token", route.body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "invalid token on %s %s", route.method, route.path)
	}

	// a token minted with a different key must not pass the gate
	foreign, err := auth.NewTokenManager("other-secret", 0).Issue("u-1")
	require.NoError(t, err)
	rec := doJSON(t, router, http.MethodGet, "/api/v1/user/me", foreign, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserAndUpdate(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/user/signup", "", signupBody("a@x.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeBody(t, rec)["token"].(string)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/user/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody(t, rec)
	assert.Equal(t, "a@x.com", me["username"])
	assert.Equal(t, "Ann", me["firstName"])
	assert.NotContains(t, me, "password_hash")

	rec = doJSON(t, router, http.MethodPut, "/api/v1/user", token, map[string]string{"firstName": "Anne"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "updated successfully", decodeBody(t, rec)["message"])

	rec = doJSON(t, router, http.MethodGet, "/api/v1/user/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Anne", decodeBody(t, rec)["firstName"])

	// empty partial update succeeds and changes nothing
	rec = doJSON(t, router, http.MethodPut, "/api/v1/user", token, map[string]string{})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/user/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Anne", decodeBody(t, rec)["firstName"])
}

func TestSearchUsers(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, u := range []map[string]string{
		{"username": "ann@x.com", "password": "pw", "firstName": "Ann", "lastName": "Archer"},
		{"username": "bob@x.com", "password": "pw", "firstName": "Bob", "lastName": "Builder"},
	} {
		rec := doJSON(t, router, http.MethodPost, "/api/v1/user/signup", "", u)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/v1/user/bulk?filter=build", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	users := decodeBody(t, rec)["users"].([]any)
	require.Len(t, users, 1)
	first := users[0].(map[string]any)
	assert.Equal(t, "bob@x.com", first["username"])
	assert.NotEmpty(t, first["id"])

	rec = doJSON(t, router, http.MethodGet, "/api/v1/user/bulk", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["users"], 2)
}

func TestBalanceEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/user/signup", "", signupBody("a@x.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeBody(t, rec)["token"].(string)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/account/balance", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	balance, ok := decodeBody(t, rec)["balance"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, balance, float64(0))
	assert.Less(t, balance, float64(10000))
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
