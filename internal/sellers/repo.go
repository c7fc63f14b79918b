package sellers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
)

// Repository exposes seller profile persistence.
type Repository struct {
	db *gorm.DB
}

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

func (r *Repository) Create(ctx context.Context, seller *models.Seller) (*models.Seller, error) {
	if err := r.db.WithContext(ctx).Create(seller).Error; err != nil {
		return nil, err
	}
	return seller, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).First(&seller, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	if err := r.db.WithContext(ctx).First(&seller, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &seller, nil
}

// UpdateProfile overwrites the onboarding fields and status of an existing seller.
func (r *Repository) UpdateProfile(ctx context.Context, seller *models.Seller) error {
	return r.db.WithContext(ctx).
		Model(seller).
		Select("store_name", "company_name", "email", "phone", "logo_url", "description", "status", "updated_at").
		Updates(seller).Error
}
