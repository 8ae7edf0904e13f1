package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yidong-blog/blog-api/internal/config"
	"github.com/yidong-blog/blog-api/internal/model"
	"github.com/yidong-blog/blog-api/pkg/auth"
	"github.com/yidong-blog/blog-api/pkg/response"
)

const testSecret = "middleware-secret"

type fakeUsers map[uint]*model.User

func (f fakeUsers) LoadActiveUser(_ context.Context, id uint) (*model.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, ErrUserUnavailable
	}
	if u.Username == "broken" {
		return nil, errors.New("connection refused")
	}
	if !u.IsActive() {
		return nil, ErrUserUnavailable
	}
	return u, nil
}

func newTestUsers() fakeUsers {
	return fakeUsers{
		1: {Base: model.Base{ID: 1}, Username: "alice", Role: model.RoleAdmin, Status: model.UserStatusActive},
		2: {Base: model.Base{ID: 2}, Username: "bob", Role: model.RoleUser, Status: model.UserStatusActive},
		3: {Base: model.Base{ID: 3}, Username: "carol", Role: model.RoleUser, Status: model.UserStatusBanned},
		4: {Base: model.Base{ID: 4}, Username: "broken", Role: model.RoleUser, Status: model.UserStatusActive},
	}
}

func newTestRouter(t *testing.T, tokens *auth.TokenService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a := NewAuthenticator(tokens, newTestUsers())
	r := gin.New()
	r.Use(Recovery())

	whoami := func(c *gin.Context) {
		id, _ := GetUserID(c)
		role, _ := GetUserRole(c)
		response.Success(c, "ok", gin.H{"id": id, "role": role})
	}
	r.GET("/required", a.JWTAuth(), whoami)
	r.GET("/optional", a.OptionalAuth(), whoami)
	r.GET("/admin", a.RequireRoles(model.RoleAdmin), whoami)
	r.GET("/chained", a.JWTAuth(), a.RequireRoles(model.RoleAdmin, model.RoleUser), whoami)
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func doRequest(r http.Handler, path, token string) (*httptest.ResponseRecorder, response.Response) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func issue(t *testing.T, tokens *auth.TokenService, id uint) string {
	t.Helper()
	token, err := tokens.Issue(id, "user")
	require.NoError(t, err)
	return token
}

func TestJWTAuthRejectsBadTokensIdentically(t *testing.T) {
	tokens := auth.NewTokenService(testSecret, time.Hour, "blog-api", auth.NewMemoryBlacklist())
	r := newTestRouter(t, tokens)

	expired := issue(t, auth.NewTokenService(testSecret, -time.Minute, "blog-api", nil), 1)
	foreign := issue(t, auth.NewTokenService("other-secret", time.Hour, "blog-api", nil), 1)
	revoked := issue(t, tokens, 1)
	require.NoError(t, tokens.Revoke(context.Background(), revoked))

	_, missing := doRequest(r, "/required", "")
	for name, token := range map[string]string{
		"malformed": "not-a-jwt",
		"expired":   expired,
		"tampered":  foreign,
		"revoked":   revoked,
	} {
		w, body := doRequest(r, "/required", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
		assert.Equal(t, missing, body, name)
	}
	assert.False(t, missing.Success)
	assert.Equal(t, http.StatusUnauthorized, missing.Code)
	assert.Equal(t, msgInvalidToken, missing.Message)
}

func TestJWTAuthUserChecks(t *testing.T) {
	tokens := auth.NewTokenService(testSecret, time.Hour, "blog-api", nil)
	r := newTestRouter(t, tokens)

	w, body := doRequest(r, "/required", issue(t, tokens, 2))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)

	w, body = doRequest(r, "/required", issue(t, tokens, 3))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, msgUserDisabled, body.Message)

	w, body = doRequest(r, "/required", issue(t, tokens, 99))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, msgUserDisabled, body.Message)

	w, _ = doRequest(r, "/required", issue(t, tokens, 4))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	tokens := auth.NewTokenService(testSecret, time.Hour, "blog-api", nil)
	r := newTestRouter(t, tokens)

	w, body := doRequest(r, "/optional", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body.Data.(map[string]any)["id"])

	w, body = doRequest(r, "/optional", "garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body.Data.(map[string]any)["id"])

	w, body = doRequest(r, "/optional", issue(t, tokens, 3))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body.Data.(map[string]any)["id"])

	w, body = doRequest(r, "/optional", issue(t, tokens, 2))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body.Data.(map[string]any)["id"])
}

func TestRequireRoles(t *testing.T) {
	tokens := auth.NewTokenService(testSecret, time.Hour, "blog-api", nil)
	r := newTestRouter(t, tokens)

	w, _ := doRequest(r, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := doRequest(r, "/admin", issue(t, tokens, 2))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, msgForbidden, body.Message)

	w, body = doRequest(r, "/admin", issue(t, tokens, 1))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.RoleAdmin, body.Data.(map[string]any)["role"])

	w, _ = doRequest(r, "/chained", issue(t, tokens, 2))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecovery(t *testing.T) {
	r := newTestRouter(t, auth.NewTokenService(testSecret, time.Hour, "blog-api", nil))

	w, body := doRequest(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, http.StatusInternalServerError, body.Code)
}

func TestRecoveryHidesDetailsInRelease(t *testing.T) {
	r := newTestRouter(t, auth.NewTokenService(testSecret, time.Hour, "blog-api", nil))
	gin.SetMode(gin.ReleaseMode)
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })

	_, body := doRequest(r, "/panic", "")
	assert.Equal(t, "服务器内部错误", body.Message)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(config.CorsConfig{
		AllowOrigins: []string{"https://blog.example.com"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       600,
	}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://blog.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
