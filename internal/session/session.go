// internal/session/session.go
//
// Session cookie helpers.
//
// Context
//   Browser clients authenticate with the same token the API accepts in the
//   Authorization header, carried in a cookie instead.  The cookie name,
//   lifetime, and flags come from the SESSION_* settings.  The value is the
//   token itself; the auth middleware verifies it like any bearer token, so
//   nothing here signs or encrypts.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"net/http"
	"time"

	"github.com/yanizio/research-gateway/internal/config"
)

// Cookie describes the session cookie.
type Cookie struct {
	Name     string
	Secure   bool
	HTTPOnly bool
	Lifetime time.Duration
}

// FromConfig builds the cookie description from the Session section.
func FromConfig(s config.Session) Cookie {
	return Cookie{
		Name:     s.CookieName,
		Secure:   s.CookieSecure,
		HTTPOnly: s.CookieHTTPOnly,
		Lifetime: time.Duration(s.TimeoutMinutes) * time.Minute,
	}
}

// Set stores token in the session cookie.  The auth middleware calls it on
// every cookie-authenticated request, so the session slides.
func (c Cookie) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(c.Lifetime / time.Second),
	})
}

// Clear expires the session cookie.  Used when its token is rejected.
func (c Cookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: c.HTTPOnly,
		Secure:   c.Secure,
	})
}

// Token returns the token stored in the session cookie, if any.
//
// ok == false when the cookie is missing or empty.
func (c Cookie) Token(r *http.Request) (token string, ok bool) {
	ck, err := r.Cookie(c.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}
