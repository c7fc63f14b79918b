package sellers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoparts-backend/internal/parts"
	"github.com/angelmondragon/autoparts-backend/internal/users"
	"github.com/angelmondragon/autoparts-backend/pkg/auth"
	"github.com/angelmondragon/autoparts-backend/pkg/db"
	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	"github.com/angelmondragon/autoparts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
	"github.com/angelmondragon/autoparts-backend/pkg/pagination"
)

const defaultStoreName = "My Store"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type partsLister interface {
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*parts.PartListResult, error)
}

// Service manages seller onboarding and the seller's own catalog view.
type Service interface {
	Register(ctx context.Context, identity auth.Identity, input RegisterInput) (*RegisterResult, error)
	Profile(ctx context.Context, identity auth.Identity) (*SellerDTO, error)
	ListParts(ctx context.Context, identity auth.Identity, ref uuid.UUID, params pagination.Params) (*parts.PartListResult, error)
}

type service struct {
	repo  *Repository
	users *users.Repository
	parts partsLister
	tx    txRunner
}

func NewService(repo *Repository, usersRepo *users.Repository, partsSvc partsLister, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("seller repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if partsSvc == nil {
		return nil, fmt.Errorf("parts service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, users: usersRepo, parts: partsSvc, tx: tx}, nil
}

func (s *service) Register(ctx context.Context, identity auth.Identity, input RegisterInput) (*RegisterResult, error) {
	user, err := s.users.FindByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}

	if user.SellerID != nil && user.Role != enums.UserRoleCustomer {
		existing, err := s.repo.FindByID(ctx, *user.SellerID)
		switch {
		case err == nil:
			return &RegisterResult{Seller: FromModel(existing), AlreadySeller: true}, nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load seller")
		}
	}

	storeName := strings.TrimSpace(input.StoreName)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if storeName == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storeName and email are required")
	}

	seller := &models.Seller{
		UserID:      user.ID,
		StoreName:   storeName,
		CompanyName: trimmed(input.CompanyName),
		Email:       email,
		Phone:       trimmed(input.Phone),
		LogoURL:     strings.TrimSpace(input.LogoURL),
		Description: trimmed(input.Description),
		Status:      enums.SellerStatusPending,
	}

	var refreshed *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		sellersTx := s.repo.WithTx(tx)
		usersTx := s.users.WithTx(tx)

		// A profile may already exist from the auto-created dashboard store;
		// the submitted details replace its defaults.
		existing, err := sellersTx.FindByUserID(ctx, user.ID)
		switch {
		case err == nil:
			seller.ID = existing.ID
			seller.Rating = existing.Rating
			seller.CreatedAt = existing.CreatedAt
			if err := sellersTx.UpdateProfile(ctx, seller); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if _, err := sellersTx.Create(ctx, seller); err != nil {
				return err
			}
		default:
			return err
		}

		if err := usersTx.LinkSeller(ctx, user.ID, seller.ID); err != nil {
			return err
		}
		refreshed, err = usersTx.FindByID(ctx, user.ID)
		return err
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Seller email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: register seller")
	}

	return &RegisterResult{Seller: FromModel(seller), User: refreshed}, nil
}

// Profile returns the caller's seller profile, creating an active default store
// on first access.
func (s *service) Profile(ctx context.Context, identity auth.Identity) (*SellerDTO, error) {
	seller, err := s.repo.FindByUserID(ctx, identity.ID)
	if err == nil {
		return FromModel(seller), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load seller profile")
	}

	seller = &models.Seller{
		UserID:    identity.ID,
		StoreName: defaultStoreName,
		Email:     strings.ToLower(strings.TrimSpace(identity.Email)),
		Status:    enums.SellerStatusActive,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).Create(ctx, seller); err != nil {
			return err
		}
		return s.users.WithTx(tx).AttachSeller(ctx, identity.ID, seller.ID)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			// Lost a race with another first access.
			if existing, findErr := s.repo.FindByUserID(ctx, identity.ID); findErr == nil {
				return FromModel(existing), nil
			}
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Seller email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create seller profile")
	}
	return FromModel(seller), nil
}

// ListParts lists the parts of the seller identified by ref. The ref may be the
// caller's user id or seller id; anything else is forbidden.
func (s *service) ListParts(ctx context.Context, identity auth.Identity, ref uuid.UUID, params pagination.Params) (*parts.PartListResult, error) {
	if ref == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid seller id")
	}

	var sellerID uuid.UUID
	switch {
	case identity.SellerID != nil && *identity.SellerID == ref:
		sellerID = ref
	case identity.ID == ref:
		seller, err := s.repo.FindByUserID(ctx, identity.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &parts.PartListResult{Parts: []parts.PartDTO{}}, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load seller")
		}
		sellerID = seller.ID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden")
	}

	return s.parts.ListBySeller(ctx, sellerID, params)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	out := strings.TrimSpace(*v)
	if out == "" {
		return nil
	}
	return &out
}
