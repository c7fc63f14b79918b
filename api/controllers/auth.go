package controllers

import (
	"net/http"

	"github.com/angelmondragon/autoparts-backend/api/responses"
	"github.com/angelmondragon/autoparts-backend/api/validators"
	"github.com/angelmondragon/autoparts-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
)

// AuthLogin checks the credentials and sets the session cookie.
func AuthLogin(svc auth.Service, cookies *SessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || cookies == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.Set(w, result.Token)
		responses.WriteSuccess(w, result)
	}
}

// AuthSession reports whether the caller holds a live session. It never
// fails; an invalid or missing token reads as anonymous.
func AuthSession(svc auth.Service, cookies *SessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || cookies == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		responses.WriteSuccess(w, svc.Session(r.Context(), cookies.Token(r)))
	}
}

// AuthLogout clears the session cookie.
func AuthLogout(cookies *SessionCookies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookies.Clear(w)
		responses.WriteSuccess(w, map[string]bool{"success": true})
	}
}
