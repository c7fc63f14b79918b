package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoparts-backend/pkg/enums"
)

// Cart is a user's shopping cart. At most one row per user has IsActive set;
// ItemsCount and SubtotalCents are derived from Items on every mutation.
type Cart struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID      `gorm:"column:user_id;type:uuid;not null"`
	Currency      enums.Currency `gorm:"column:currency;not null"`
	IsActive      bool           `gorm:"column:is_active;not null"`
	ItemsCount    int            `gorm:"column:items_count;not null"`
	SubtotalCents int64          `gorm:"column:subtotal_cents;not null"`
	Version       int64          `gorm:"column:version;not null"`
	Items         []CartItem     `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	if c.Currency == "" {
		c.Currency = enums.CurrencyUSD
	}
	return nil
}

// CartItem is one line of a cart. Snapshot fields are captured when the part
// is first added and never refreshed from the catalog.
type CartItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID          uuid.UUID `gorm:"column:cart_id;type:uuid;not null"`
	PartID          uuid.UUID `gorm:"column:part_id;type:uuid;not null"`
	Quantity        int       `gorm:"column:quantity;not null"`
	PriceAtAddCents int64     `gorm:"column:price_at_add_cents;not null"`
	NameSnapshot    string    `gorm:"column:name_snapshot;not null"`
	ImageSnapshot   string    `gorm:"column:image_snapshot;not null"`
	BrandSnapshot   string    `gorm:"column:brand_snapshot;not null"`
	IsSelected      bool      `gorm:"column:is_selected;not null"`
	Position        int       `gorm:"column:position;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
