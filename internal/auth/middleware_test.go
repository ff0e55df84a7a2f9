package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/research-gateway/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Project.APIV1Str = "/api/v1"
	cfg.Security.JWTSecret = "jwt-s3cret"
	cfg.Security.JWTAlgorithm = "HS256"
	cfg.Session.CookieName = "research_session"
	cfg.Session.TimeoutMinutes = 60
	return cfg
}

func signHS(t *testing.T, method jwt.SigningMethod, secret string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, localClaims{
		Email: "ada@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

type fakeVerifier struct {
	calls atomic.Int32
	ok    map[string]*Principal
}

func (f *fakeVerifier) Verify(_ context.Context, raw string) (*Principal, error) {
	f.calls.Add(1)
	if p, ok := f.ok[raw]; ok {
		return p, nil
	}
	return nil, errors.New("rejected")
}

// echo reports the authenticated subject, or "anonymous".
var echo = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if p, ok := FromContext(r.Context()); ok {
		_, _ = w.Write([]byte(p.Subject))
		return
	}
	_, _ = w.Write([]byte("anonymous"))
})

func serve(m *Middleware, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	m.Handler(echo).ServeHTTP(rec, req)
	return rec
}

func TestExcludedPaths(t *testing.T) {
	m := New(testConfig(), nil)
	for _, path := range []string{"/", "/health", "/docs", "/redoc", "/openapi.json", "/api/v1/openapi.json", "/metrics"} {
		rec := serve(m, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "anonymous", rec.Body.String(), path)
	}

	rec := serve(m, httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingToken(t *testing.T) {
	rec := serve(New(testConfig(), nil), httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"detail":"Not authenticated"}`, rec.Body.String())
}

func TestBearerToken(t *testing.T) {
	m := New(testConfig(), nil)
	tok := signHS(t, jwt.SigningMethodHS256, "jwt-s3cret", time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := serve(m, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestSessionCookie(t *testing.T) {
	m := New(testConfig(), nil)
	tok := signHS(t, jwt.SigningMethodHS256, "jwt-s3cret", time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.AddCookie(&http.Cookie{Name: "research_session", Value: tok})
	rec := serve(m, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1, "the session is refreshed")
	assert.Equal(t, "research_session", cookies[0].Name)
	assert.Equal(t, tok, cookies[0].Value)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestBadSessionCookieIsCleared(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.AddCookie(&http.Cookie{Name: "research_session", Value: "not.a.token"})
	rec := serve(New(testConfig(), nil), req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "research_session", cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestBearerDoesNotSetCookie(t *testing.T) {
	tok := signHS(t, jwt.SigningMethodHS256, "jwt-s3cret", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := serve(New(testConfig(), nil), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRejectedLocalTokens(t *testing.T) {
	tests := map[string]string{
		"wrong secret":    signHS(t, jwt.SigningMethodHS256, "other", time.Now().Add(time.Hour)),
		"wrong algorithm": signHS(t, jwt.SigningMethodHS512, "jwt-s3cret", time.Now().Add(time.Hour)),
		"expired":         signHS(t, jwt.SigningMethodHS256, "jwt-s3cret", time.Now().Add(-time.Hour)),
		"garbage":         "not.a.token",
	}
	m := New(testConfig(), nil)
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			rec := serve(m, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"detail":"Invalid authentication credentials"}`, rec.Body.String())
		})
	}
}

func TestNonBearerScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwdw==")
	rec := serve(New(testConfig(), nil), req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRemoteFallbackIsCached(t *testing.T) {
	remote := &fakeVerifier{ok: map[string]*Principal{
		"kc-token": {Subject: "kc-user", Source: "keycloak"},
	}}
	m := New(testConfig(), remote)

	for i := 0; i < 3; i++ {
		p, err := m.Authenticate(context.Background(), "kc-token")
		require.NoError(t, err)
		assert.Equal(t, "kc-user", p.Subject)
	}
	assert.Equal(t, int32(1), remote.calls.Load())

	_, err := m.Authenticate(context.Background(), "bad-token")
	assert.Error(t, err)
}

func TestCachedEntryExpiresWithToken(t *testing.T) {
	m := New(testConfig(), nil)
	now := time.Now()
	m.now = func() time.Time { return now }

	tok := signHS(t, jwt.SigningMethodHS256, "jwt-s3cret", now.Add(time.Minute))
	_, err := m.Authenticate(context.Background(), tok)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Authenticate(context.Background(), tok)
	assert.Error(t, err)
}

func TestAuthenticateEmpty(t *testing.T) {
	_, err := New(testConfig(), nil).Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoToken)
}
