package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autoparts-backend/api/middleware"
	"github.com/angelmondragon/autoparts-backend/api/responses"
	"github.com/angelmondragon/autoparts-backend/api/validators"
	"github.com/angelmondragon/autoparts-backend/internal/parts"
	"github.com/angelmondragon/autoparts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
)

type createPartRequest struct {
	Name          string           `json:"name" validate:"required,max=200"`
	Description   string           `json:"description" validate:"required"`
	Category      string           `json:"category" validate:"required"`
	Brand         string           `json:"brand" validate:"required"`
	Price         *decimal.Decimal `json:"price" validate:"required"`
	StockQuantity int              `json:"stockQuantity" validate:"gte=0"`
	Images        []string         `json:"images" validate:"max=10,dive,url"`
}

func PartsCreate(svc parts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "parts service unavailable"))
			return
		}
		identity, err := requireIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if identity.SellerID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "seller profile required"))
			return
		}

		var body createPartRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), *identity.SellerID, parts.CreatePartInput{
			Name:          body.Name,
			Description:   body.Description,
			Category:      body.Category,
			Brand:         body.Brand,
			Price:         *body.Price,
			StockQuantity: body.StockQuantity,
			Images:        body.Images,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func PartsGet(svc parts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "parts service unavailable"))
			return
		}
		partID, err := validators.ParseUUIDParam(r, "partId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		part, err := svc.Get(r.Context(), partID, viewerFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, part)
	}
}

func PartsList(svc parts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "parts service unavailable"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		result, err := svc.List(r.Context(), parts.ListFilter{
			Category: validators.SanitizeString(query.Get("category"), 100),
			Brand:    validators.SanitizeString(query.Get("brand"), 100),
		}, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// viewerFromRequest reads the optional session attached by OptionalAuth.
func viewerFromRequest(r *http.Request) parts.Viewer {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return parts.Viewer{}
	}
	return parts.Viewer{
		SellerID: identity.SellerID,
		Admin:    middleware.RoleFromContext(r.Context()) == enums.UserRoleAdmin,
	}
}
