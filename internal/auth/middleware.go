// internal/auth/middleware.go
//
// Token authentication middleware.
//
/*
Context
--------
Every request outside the excluded paths must carry a token, either as
`Authorization: Bearer <token>` or in the session cookie.  The token is
checked in two steps:

  1. Locally, as an HMAC JWT signed with JWT_SECRET using JWT_ALGORITHM.
     Tokens the gateway minted itself never leave the process.
  2. Otherwise through the remote Verifier (Keycloak), when one is wired.

Verified principals are kept in an expirable LRU keyed by the raw token so
repeated calls skip signature checks.  An entry never outlives its token.

On success the *Principal is stored in the request context (see
context.go).  On failure the response is a JSON 401 with
`WWW-Authenticate: Bearer`.  CORS preflights (OPTIONS) pass through.
*/
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/yanizio/research-gateway/internal/config"
	"github.com/yanizio/research-gateway/internal/session"
)

// DefaultExcludePaths never require a token.
var DefaultExcludePaths = []string{"/", "/health", "/metrics", "/docs", "/redoc", "/openapi.json"}

// ErrNoToken is returned when the request carries no token at all.
var ErrNoToken = errors.New("auth: no token")

// Verifier checks tokens issued by an external identity provider.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*Principal, error)
}

const (
	cacheSize = 4096
	cacheTTL  = 5 * time.Minute
)

type cachedPrincipal struct {
	p   *Principal
	exp time.Time
}

// Middleware authenticates requests.  Create once with New.
type Middleware struct {
	exclude map[string]bool
	secret  []byte
	alg     string
	remote  Verifier
	cookie  session.Cookie
	cache   *expirable.LRU[string, cachedPrincipal]
	now     func() time.Time
}

// New builds the middleware from cfg.  remote may be nil, in which case
// only locally signed tokens are accepted.
func New(cfg *config.Config, remote Verifier) *Middleware {
	m := &Middleware{
		exclude: make(map[string]bool),
		secret:  []byte(cfg.Security.JWTSecret),
		alg:     cfg.Security.JWTAlgorithm,
		remote:  remote,
		cookie:  session.FromConfig(cfg.Session),
		cache:   expirable.NewLRU[string, cachedPrincipal](cacheSize, nil, cacheTTL),
		now:     time.Now,
	}
	for _, p := range DefaultExcludePaths {
		m.exclude[p] = true
	}
	m.exclude[strings.TrimRight(cfg.Project.APIV1Str, "/")+"/openapi.json"] = true
	return m
}

// Handler wraps next.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || m.exclude[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		raw, fromCookie, ok := m.token(r)
		if !ok {
			unauthorized(w, "Not authenticated")
			return
		}

		p, err := m.Authenticate(r.Context(), raw)
		if err != nil {
			zap.S().Debugw("auth rejected", "path", r.URL.Path, "err", err)
			if fromCookie {
				m.cookie.Clear(w)
			}
			unauthorized(w, "Invalid authentication credentials")
			return
		}

		// Cookie sessions slide: each authenticated request restarts
		// SESSION_TIMEOUT_MINUTES.
		if fromCookie {
			m.cookie.Set(w, raw)
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// Authenticate verifies raw locally, then remotely.
func (m *Middleware) Authenticate(ctx context.Context, raw string) (*Principal, error) {
	if raw == "" {
		return nil, ErrNoToken
	}
	if hit, ok := m.cache.Get(raw); ok && m.now().Before(hit.exp) {
		return hit.p, nil
	}

	p, exp, err := m.verifyLocal(raw)
	if err != nil && m.remote != nil {
		var rerr error
		if p, rerr = m.remote.Verify(ctx, raw); rerr != nil {
			return nil, fmt.Errorf("auth: local: %v; remote: %w", err, rerr)
		}
		exp, err = m.now().Add(cacheTTL), nil
		if e, ok := unverifiedExpiry(raw); ok {
			exp = e
		}
	}
	if err != nil {
		return nil, err
	}

	m.cache.Add(raw, cachedPrincipal{p: p, exp: exp})
	return p, nil
}

type localClaims struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"preferred_username,omitempty"`
	jwt.RegisteredClaims
}

func (m *Middleware) verifyLocal(raw string) (*Principal, time.Time, error) {
	var c localClaims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{m.alg}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("auth: %w", err)
	}
	return &Principal{
		Subject:  c.Subject,
		Email:    c.Email,
		Username: c.Username,
		Issuer:   c.Issuer,
		Source:   "local",
	}, c.ExpiresAt.Time, nil
}

// unverifiedExpiry reads exp from a token the remote verifier has already
// accepted.
func unverifiedExpiry(raw string) (time.Time, bool) {
	var c jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &c); err != nil || c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}

// token returns the bearer token, else the session cookie's token.
func (m *Middleware) token(r *http.Request) (raw string, fromCookie, ok bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, tok, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(tok) != "" {
			return strings.TrimSpace(tok), false, true
		}
		return "", false, false
	}
	raw, ok = m.cookie.Token(r)
	return raw, ok, ok
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
