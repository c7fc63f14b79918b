package parts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	"github.com/angelmondragon/autoparts-backend/pkg/types"
)

// PartDTO is the public catalog shape of a part.
type PartDTO struct {
	ID            uuid.UUID   `json:"id"`
	SellerID      *uuid.UUID  `json:"sellerId,omitempty"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Category      string      `json:"category"`
	Brand         string      `json:"brand"`
	Price         types.Money `json:"price"`
	StockQuantity int         `json:"stockQuantity"`
	Images        []string    `json:"images"`
	IsActive      bool        `json:"isActive"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// ListFilter narrows the public catalog listing.
type ListFilter struct {
	Category string
	Brand    string
}

// Viewer describes who is asking for a part. The zero value is an anonymous
// shopper, who only sees active parts.
type Viewer struct {
	SellerID *uuid.UUID
	Admin    bool
}

func (v Viewer) canSeeInactive(p *models.Part) bool {
	if v.Admin {
		return true
	}
	return v.SellerID != nil && p.SellerID != nil && *v.SellerID == *p.SellerID
}

// PartListResult is one page of parts.
type PartListResult struct {
	Parts      []PartDTO `json:"parts"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

// CreatePartInput holds the validated payload to list a part.
type CreatePartInput struct {
	Name          string
	Description   string
	Category      string
	Brand         string
	Price         decimal.Decimal
	StockQuantity int
	Images        []string
}

func FromModel(p *models.Part) *PartDTO {
	if p == nil {
		return nil
	}
	images := append([]string{}, p.Images...)
	return &PartDTO{
		ID:            p.ID,
		SellerID:      p.SellerID,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		Brand:         p.Brand,
		Price:         types.Money(p.PriceCents),
		StockQuantity: p.StockQuantity,
		Images:        images,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
	}
}
