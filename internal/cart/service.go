package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoparts-backend/pkg/db"
	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
)

// createAttempts bounds the insert-or-reload loop around ux_carts_user_active.
const createAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalog interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Part, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Part, error)
}

// Service mutates a user's single active cart and keeps its totals in step with its lines.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, partID string, qty int) (*CartDTO, error)
	SetQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
}

type service struct {
	repo    *Repository
	tx      txRunner
	catalog catalog
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, catalog catalog) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("part catalog required")
	}
	return &service{repo: repo, tx: tx, catalog: catalog}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	return s.load(ctx, userID)
}

// AddItem adds qty of a part to the active cart, creating the cart on first use.
// A part already in the cart has its quantity incremented instead of gaining a second line.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, rawPartID string, qty int) (*CartDTO, error) {
	partID, err := uuid.Parse(strings.TrimSpace(rawPartID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or missing partId")
	}
	qty, err = NormalizeQuantity(qty)
	if err != nil {
		return nil, err
	}

	part, err := s.catalog.FindActiveByID(ctx, partID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "part not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load part")
	}

	if err := s.ensureActiveCart(ctx, userID); err != nil {
		return nil, err
	}

	err = s.mutate(ctx, userID, func(ctx context.Context, repo *Repository, cart *models.Cart) error {
		existing, err := repo.FindItemByPart(ctx, cart.ID, partID)
		switch {
		case err == nil:
			if existing.Quantity+qty > MaxQuantity {
				return quantityTooLarge()
			}
			if _, err := repo.IncrementItem(ctx, cart.ID, existing.ID, qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: increment cart item")
			}
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart item")
		}

		lines, err := repo.ListItems(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list cart items")
		}
		item := snapshotItem(cart.ID, part, qty, len(lines))
		if err := repo.InsertItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert cart item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

func (s *service) SetQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*CartDTO, error) {
	qty, err := NormalizeQuantity(qty)
	if err != nil {
		return nil, err
	}
	err = s.mutate(ctx, userID, func(ctx context.Context, repo *Repository, cart *models.Cart) error {
		n, err := repo.SetItemQuantity(ctx, cart.ID, itemID, qty)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cart item")
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

// RemoveItem deletes the line with one conditional statement and recomputes
// from whatever lines remain in the store.
func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	err := s.mutate(ctx, userID, func(ctx context.Context, repo *Repository, cart *models.Cart) error {
		n, err := repo.DeleteItem(ctx, cart.ID, itemID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart item")
		}
		if n == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

// mutate locks the active cart row, applies fn, then recomputes the totals from
// the stored lines and bumps the version, all in one transaction.
func (s *service) mutate(ctx context.Context, userID uuid.UUID, fn func(context.Context, *Repository, *models.Cart) error) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := repo.LockActiveByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock cart")
		}

		if err := fn(ctx, repo, cart); err != nil {
			return err
		}

		lines, err := repo.ListItems(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload cart items")
		}
		if err := repo.SaveTotals(ctx, cart.ID, Recompute(lines)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save cart totals")
		}
		return nil
	})
}

// ensureActiveCart creates the active cart if missing. Losing the insert race
// to a concurrent request surfaces as a unique violation and the loop re-reads.
func (s *service) ensureActiveCart(ctx context.Context, userID uuid.UUID) error {
	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		_, err := s.repo.FindActiveByUser(ctx, userID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
		}

		_, err = s.repo.CreateActive(ctx, userID)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create cart")
		}
		lastErr = err
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "cart is being created concurrently, retry")
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCart(userID), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.PartID)
	}
	parts, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart parts")
	}
	return fromModel(cart, parts), nil
}

func snapshotItem(cartID uuid.UUID, part *models.Part, qty, position int) *models.CartItem {
	return &models.CartItem{
		CartID:          cartID,
		PartID:          part.ID,
		Quantity:        qty,
		PriceAtAddCents: max(part.PriceCents, 0),
		NameSnapshot:    part.Name,
		ImageSnapshot:   part.Images.First(),
		BrandSnapshot:   part.Brand,
		IsSelected:      true,
		Position:        position,
	}
}
