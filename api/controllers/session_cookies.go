package controllers

import (
	"net/http"

	"github.com/angelmondragon/autoparts-backend/api/middleware"
	pkgAuth "github.com/angelmondragon/autoparts-backend/pkg/auth"
	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
)

type cookieMinter interface {
	SessionCookie(token string, secure bool) *http.Cookie
	ClearSessionCookie(secure bool) *http.Cookie
	TokenFromRequest(r *http.Request) string
}

// sessionIssuer mints a session token for a stored user.
type sessionIssuer interface {
	IssueFor(user *models.User) (string, error)
}

// SessionCookies writes and clears the session cookie. Secure is set in
// production only so local http development keeps working.
type SessionCookies struct {
	tokens cookieMinter
	secure bool
}

func NewSessionCookies(tokens cookieMinter, secure bool) *SessionCookies {
	return &SessionCookies{tokens: tokens, secure: secure}
}

func (c *SessionCookies) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, c.tokens.SessionCookie(token, c.secure))
}

func (c *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.tokens.ClearSessionCookie(c.secure))
}

func (c *SessionCookies) Token(r *http.Request) string {
	return c.tokens.TokenFromRequest(r)
}

func requireIdentity(r *http.Request) (pkgAuth.Identity, error) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return pkgAuth.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "please log in")
	}
	return identity, nil
}
