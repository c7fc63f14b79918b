package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/autoparts-backend/pkg/db/types"
)

// Part is a catalog listing. Category and brand are stored by name.
type Part struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	SellerID      *uuid.UUID         `gorm:"column:seller_id;type:uuid"`
	Name          string             `gorm:"column:name;not null"`
	Description   string             `gorm:"column:description;not null"`
	Category      string             `gorm:"column:category;not null"`
	Brand         string             `gorm:"column:brand;not null"`
	PriceCents    int64              `gorm:"column:price_cents;not null"`
	StockQuantity int                `gorm:"column:stock_quantity;not null"`
	Images        dbtypes.StringList `gorm:"column:images;type:jsonb;not null"`
	IsActive      bool               `gorm:"column:is_active;not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Part) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.Images == nil {
		p.Images = dbtypes.StringList{}
	}
	return nil
}
