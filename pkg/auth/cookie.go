package auth

import (
	"net/http"
	"strings"
)

// DefaultCookieName carries the session token.
const DefaultCookieName = "apsession"

// CookieName is the configured session cookie name.
func (s *TokenService) CookieName() string {
	return s.cookieName
}

// SessionCookie wraps token in the session cookie. Secure is set only when the
// caller runs in production.
func (s *TokenService) SessionCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie expires the session cookie immediately.
func (s *TokenService) ClearSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// TokenFromRequest reads the session cookie, falling back to a bearer token.
func (s *TokenService) TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(s.cookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
