package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/autoparts-backend/api/responses"
	pkgAuth "github.com/angelmondragon/autoparts-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
)

const unauthenticatedMessage = "please log in"

// TokenVerifier resolves a session token from the request.
type TokenVerifier interface {
	TokenFromRequest(r *http.Request) string
	Verify(token string) (pkgAuth.Identity, bool)
}

// Auth requires a valid session cookie or bearer token and seeds the request
// context with the identity.
func Auth(tokens TokenVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := resolveIdentity(tokens, r)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, unauthenticatedMessage))
				return
			}
			next.ServeHTTP(w, r.WithContext(attachIdentity(r, identity, logg)))
		})
	}
}

// OptionalAuth attaches the identity when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(tokens TokenVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity, ok := resolveIdentity(tokens, r); ok {
				r = r.WithContext(attachIdentity(r, identity, logg))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveIdentity(tokens TokenVerifier, r *http.Request) (pkgAuth.Identity, bool) {
	if tokens == nil {
		return pkgAuth.Identity{}, false
	}
	token := tokens.TokenFromRequest(r)
	if token == "" {
		return pkgAuth.Identity{}, false
	}
	return tokens.Verify(token)
}

func attachIdentity(r *http.Request, identity pkgAuth.Identity, logg *logger.Logger) context.Context {
	ctx := WithIdentity(r.Context(), identity)
	if logg != nil {
		ctx = logg.WithUserID(ctx, identity.ID.String())
		ctx = logg.WithActorRole(ctx, identity.Role.String())
	}
	return ctx
}
