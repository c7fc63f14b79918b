package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/autoparts-backend/api/responses"
	"github.com/angelmondragon/autoparts-backend/api/validators"
	"github.com/angelmondragon/autoparts-backend/internal/sellers"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
)

type sellerRegisterRequest struct {
	StoreName   string  `json:"storeName" validate:"required,max=100"`
	Email       string  `json:"email" validate:"required,email,max=100"`
	CompanyName *string `json:"companyName" validate:"omitempty,max=150"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	LogoURL     string  `json:"logoUrl" validate:"omitempty,url"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type sellerRegisterResponse struct {
	Seller        *sellers.SellerDTO `json:"seller"`
	SellerID      uuid.UUID          `json:"sellerId"`
	AlreadySeller bool               `json:"alreadySeller"`
}

// SellerRegister onboards the caller as a seller. A role change reissues the
// session cookie so the new role is visible without logging in again.
func SellerRegister(svc sellers.Service, sessions sessionIssuer, cookies *SessionCookies, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || sessions == nil || cookies == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "seller service unavailable"))
			return
		}
		identity, err := requireIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sellerRegisterRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), identity, sellers.RegisterInput{
			StoreName:   validators.SanitizeString(body.StoreName, 100),
			Email:       body.Email,
			CompanyName: body.CompanyName,
			Phone:       body.Phone,
			LogoURL:     body.LogoURL,
			Description: body.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := sellerRegisterResponse{Seller: result.Seller, SellerID: result.Seller.ID, AlreadySeller: result.AlreadySeller}
		if result.AlreadySeller {
			responses.WriteSuccess(w, payload)
			return
		}

		if result.User != nil {
			token, err := sessions.IssueFor(result.User)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			cookies.Set(w, token)
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payload)
	}
}

func SellerProfile(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "seller service unavailable"))
			return
		}
		identity, err := requireIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.Profile(r.Context(), identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// SellerParts lists the parts of a seller the caller owns, newest first.
func SellerParts(svc sellers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "seller service unavailable"))
			return
		}
		identity, err := requireIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ref, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListParts(r.Context(), identity, ref, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
