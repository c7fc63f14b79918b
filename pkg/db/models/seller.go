package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoparts-backend/pkg/enums"
)

// Seller is the storefront profile owned by a single user.
type Seller struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	StoreName   string             `gorm:"column:store_name;not null"`
	CompanyName *string            `gorm:"column:company_name"`
	Email       string             `gorm:"column:email;not null;uniqueIndex"`
	Phone       *string            `gorm:"column:phone"`
	LogoURL     string             `gorm:"column:logo_url;not null"`
	Description *string            `gorm:"column:description"`
	Status      enums.SellerStatus `gorm:"column:status;not null"`
	Rating      float64            `gorm:"column:rating;not null"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Seller) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	if s.Status == "" {
		s.Status = enums.SellerStatusPending
	}
	return nil
}
