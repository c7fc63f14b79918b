package controllers

import (
	"net/http"
	"strconv"

	"github.com/angelmondragon/autoparts-backend/api/responses"
	"github.com/angelmondragon/autoparts-backend/api/validators"
	"github.com/angelmondragon/autoparts-backend/internal/registration"
	"github.com/angelmondragon/autoparts-backend/internal/users"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
)

// Field rules live in the registration service so every caller gets the same
// messages.
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resendRequest struct {
	Email string `json:"email"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type verifyResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    *users.UserDTO `json:"user"`
}

func AuthRegister(svc registration.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registration service unavailable"))
			return
		}

		var body registerRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := registration.RegisterInput{Name: body.Name, Email: body.Email, Password: body.Password}
		if err := svc.Register(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, messageResponse{Success: true, Message: "Verification email sent"})
	}
}

// AuthVerify completes a pending signup and signs the new user in.
func AuthVerify(svc registration.Service, sessions sessionIssuer, cookies *SessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || sessions == nil || cookies == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registration service unavailable"))
			return
		}

		var body verifyRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Verify(r.Context(), body.Email, body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// The account exists at this point; a token failure only costs the
		// auto sign-in.
		token, err := sessions.IssueFor(user)
		switch {
		case err == nil:
			cookies.Set(w, token)
		case logg != nil:
			logg.Error(logg.WithUserID(r.Context(), user.ID.String()), "auth.verify.issue_session_failed", err)
		}

		responses.WriteSuccess(w, verifyResponse{Success: true, Message: "Email verified", User: users.FromModel(user)})
	}
}

func AuthResend(svc registration.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registration service unavailable"))
			return
		}

		var body resendRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Resend(r.Context(), body.Email); err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeRateLimit {
				if details, ok := typed.Details().(map[string]any); ok {
					if seconds, ok := details["retry_after_seconds"].(int); ok {
						w.Header().Set("Retry-After", strconv.Itoa(seconds))
					}
				}
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, messageResponse{Success: true, Message: "Verification email resent"})
	}
}
