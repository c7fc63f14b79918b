package parts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/autoparts-backend/pkg/db/types"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
	"github.com/angelmondragon/autoparts-backend/pkg/pagination"
	"github.com/angelmondragon/autoparts-backend/pkg/types"
)

const maxImages = 10

// Service exposes catalog operations used by the HTTP layer.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, input CreatePartInput) (*PartDTO, error)
	Get(ctx context.Context, id uuid.UUID, viewer Viewer) (*PartDTO, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*PartListResult, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*PartListResult, error)
}

type service struct {
	repo *Repository
}

// NewService constructs a parts service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("parts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, sellerID uuid.UUID, input CreatePartInput) (*PartDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller profile required")
	}
	part, err := buildPart(sellerID, input)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, part)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert part")
	}
	return FromModel(created), nil
}

// Get loads a part. Inactive parts are reported as missing unless the viewer
// owns them or is an admin.
func (s *service) Get(ctx context.Context, id uuid.UUID, viewer Viewer) (*PartDTO, error) {
	part, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load part")
	}
	if !part.IsActive && !viewer.canSeeInactive(part) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
	}
	return FromModel(part), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*PartListResult, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Brand = strings.TrimSpace(filter.Brand)
	rows, next, err := s.repo.ListActive(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list parts")
	}
	return toListResult(rows, next), nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*PartListResult, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListBySeller(ctx, sellerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list seller parts")
	}
	return toListResult(rows, next), nil
}

func toListResult(rows []models.Part, next string) *PartListResult {
	out := &PartListResult{Parts: make([]PartDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		out.Parts = append(out.Parts, *FromModel(&rows[i]))
	}
	return out
}

func buildPart(sellerID uuid.UUID, input CreatePartInput) (*models.Part, error) {
	fields := map[string]string{
		"name":        strings.TrimSpace(input.Name),
		"description": strings.TrimSpace(input.Description),
		"category":    strings.TrimSpace(input.Category),
		"brand":       strings.TrimSpace(input.Brand),
	}
	for _, key := range []string{"name", "description", "category", "brand"} {
		if fields[key] == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, key+" is required")
		}
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stockQuantity must be non-negative")
	}
	if len(input.Images) > maxImages {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d images are allowed", maxImages))
	}

	images := make(dbtypes.StringList, 0, len(input.Images))
	for _, img := range input.Images {
		if trimmed := strings.TrimSpace(img); trimmed != "" {
			images = append(images, trimmed)
		}
	}

	return &models.Part{
		SellerID:      &sellerID,
		Name:          fields["name"],
		Description:   fields["description"],
		Category:      fields["category"],
		Brand:         fields["brand"],
		PriceCents:    types.MoneyFromDecimal(input.Price).Cents(),
		StockQuantity: input.StockQuantity,
		Images:        images,
		IsActive:      true,
	}, nil
}
