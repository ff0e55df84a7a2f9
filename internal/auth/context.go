// internal/auth/context.go
//
// Principal helpers.
//
// Usage
// -----
//     // Attach the verified caller to the request context.
//     ctx = auth.WithPrincipal(ctx, p)
//
//     // Downstream handlers retrieve it.
//     p, ok := auth.FromContext(ctx)
//
// Notes
// -----
// • Authentication only.  Role checks belong to the API handlers.
// • Oxford commas, two spaces after periods.

package auth

import "context"

// Principal is the verified caller behind a request.
type Principal struct {
	Subject  string // "sub" claim
	Email    string
	Username string // "preferred_username" for Keycloak tokens
	Issuer   string
	Source   string // "local" (JWT_SECRET) or "keycloak"
}

// principalKey is unexported to avoid context-key collisions.
type principalKey struct{}

// WithPrincipal returns a new context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext extracts the principal stored by the middleware.  It returns
// (nil, false) when the request was not authenticated.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
