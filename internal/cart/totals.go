package cart

import (
	"fmt"

	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
)

// MaxQuantity caps a single line so line totals stay far inside int64 cents.
const MaxQuantity = 9999

// Totals are the aggregate fields materialized on the cart row.
type Totals struct {
	ItemsCount    int
	SubtotalCents int64
}

// ClampQuantity coerces any requested quantity to at least one.
func ClampQuantity(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}

// NormalizeQuantity clamps qty up to one and rejects anything above MaxQuantity.
func NormalizeQuantity(qty int) (int, error) {
	qty = ClampQuantity(qty)
	if qty > MaxQuantity {
		return 0, quantityTooLarge()
	}
	return qty, nil
}

func quantityTooLarge() error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be at most %d", MaxQuantity)).
		WithDetails(map[string]any{"maxQuantity": MaxQuantity})
}

// Recompute derives the cart totals from its lines. Negative snapshot prices
// count as zero and stored quantities are clamped before summing.
func Recompute(items []models.CartItem) Totals {
	var t Totals
	for _, item := range items {
		qty := ClampQuantity(item.Quantity)
		price := item.PriceAtAddCents
		if price < 0 {
			price = 0
		}
		t.ItemsCount += qty
		t.SubtotalCents += price * int64(qty)
	}
	return t
}
