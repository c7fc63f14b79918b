package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	"github.com/angelmondragon/autoparts-backend/pkg/enums"
	"github.com/angelmondragon/autoparts-backend/pkg/types"
)

// CartDTO is the response shape for every cart endpoint. ID is nil for the
// virtual empty cart returned before the first add.
type CartDTO struct {
	ID        *uuid.UUID     `json:"id"`
	UserID    uuid.UUID      `json:"userId"`
	Items     []CartItemDTO  `json:"items"`
	Totals    TotalsDTO      `json:"totals"`
	Currency  enums.Currency `json:"currency"`
	IsActive  bool           `json:"isActive"`
	Version   int64          `json:"version"`
	UpdatedAt *time.Time     `json:"updatedAt,omitempty"`
}

type TotalsDTO struct {
	ItemsCount int         `json:"itemsCount"`
	Subtotal   types.Money `json:"subtotal"`
}

// CartItemDTO pairs the stored snapshot with the live catalog view. Part is
// nil once the part has been removed from the catalog.
type CartItemDTO struct {
	ID            uuid.UUID   `json:"id"`
	PartID        uuid.UUID   `json:"partId"`
	Part          *PartView   `json:"part"`
	Quantity      int         `json:"quantity"`
	PriceAtAdd    types.Money `json:"priceAtAdd"`
	LineTotal     types.Money `json:"lineTotal"`
	NameSnapshot  string      `json:"nameSnapshot"`
	ImageSnapshot string      `json:"imageSnapshot"`
	BrandSnapshot string      `json:"brandSnapshot"`
	IsSelected    bool        `json:"isSelected"`
}

// PartView is the slice of catalog data shown next to a cart line.
type PartView struct {
	ID     uuid.UUID   `json:"id"`
	Name   string      `json:"name"`
	Price  types.Money `json:"price"`
	Images []string    `json:"images"`
	Brand  string      `json:"brand"`
}

func emptyCart(userID uuid.UUID) *CartDTO {
	return &CartDTO{
		UserID:   userID,
		Items:    []CartItemDTO{},
		Currency: enums.CurrencyUSD,
		IsActive: true,
	}
}

func fromModel(c *models.Cart, catalog map[uuid.UUID]models.Part) *CartDTO {
	id := c.ID
	updated := c.UpdatedAt
	out := &CartDTO{
		ID:     &id,
		UserID: c.UserID,
		Items:  make([]CartItemDTO, 0, len(c.Items)),
		Totals: TotalsDTO{
			ItemsCount: c.ItemsCount,
			Subtotal:   types.Money(c.SubtotalCents),
		},
		Currency:  c.Currency,
		IsActive:  c.IsActive,
		Version:   c.Version,
		UpdatedAt: &updated,
	}
	for _, item := range c.Items {
		price := item.PriceAtAddCents
		if price < 0 {
			price = 0
		}
		line := CartItemDTO{
			ID:            item.ID,
			PartID:        item.PartID,
			Quantity:      item.Quantity,
			PriceAtAdd:    types.Money(item.PriceAtAddCents),
			LineTotal:     types.Money(price * int64(ClampQuantity(item.Quantity))),
			NameSnapshot:  item.NameSnapshot,
			ImageSnapshot: item.ImageSnapshot,
			BrandSnapshot: item.BrandSnapshot,
			IsSelected:    item.IsSelected,
		}
		if part, ok := catalog[item.PartID]; ok {
			line.Part = &PartView{
				ID:     part.ID,
				Name:   part.Name,
				Price:  types.Money(part.PriceCents),
				Images: append([]string{}, part.Images...),
				Brand:  part.Brand,
			}
		}
		out.Items = append(out.Items, line)
	}
	return out
}
