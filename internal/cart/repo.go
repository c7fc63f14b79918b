package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	"github.com/angelmondragon/autoparts-backend/pkg/enums"
)

// Repository exposes persistence operations for carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindActiveByUser loads the user's active cart with its lines in display order.
func (r *Repository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("created_at ASC")
		}).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// LockActiveByUser loads the active cart row with FOR UPDATE. Must run inside a transaction.
func (r *Repository) LockActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// CreateActive inserts an empty active cart. A concurrent insert for the same
// user fails on ux_carts_user_active.
func (r *Repository) CreateActive(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := &models.Cart{
		UserID:   userID,
		Currency: enums.CurrencyUSD,
		IsActive: true,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

// FindItemByPart returns the line for partID, if any.
func (r *Repository) FindItemByPart(ctx context.Context, cartID, partID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND part_id = ?", cartID, partID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// InsertItem appends a new line.
func (r *Repository) InsertItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// IncrementItem adds delta to the stored quantity in a single statement.
func (r *Repository) IncrementItem(ctx context.Context, cartID, itemID uuid.UUID, delta int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// SetItemQuantity overwrites a line's quantity. Zero rows means no such line in the cart.
func (r *Repository) SetItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, qty int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Updates(map[string]any{
			"quantity":   qty,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// DeleteItem removes a line only if it belongs to cartID.
func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// ListItems returns the lines currently stored for the cart.
func (r *Repository) ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveTotals writes recomputed aggregates and bumps the cart version.
func (r *Repository) SaveTotals(ctx context.Context, cartID uuid.UUID, totals Totals) error {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"items_count":    totals.ItemsCount,
			"subtotal_cents": totals.SubtotalCents,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
