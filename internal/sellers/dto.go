package sellers

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	"github.com/angelmondragon/autoparts-backend/pkg/enums"
)

// SellerDTO is the seller profile returned to its owner.
type SellerDTO struct {
	ID          uuid.UUID          `json:"id"`
	UserID      uuid.UUID          `json:"userId"`
	StoreName   string             `json:"storeName"`
	CompanyName *string            `json:"companyName,omitempty"`
	Email       string             `json:"email"`
	Phone       *string            `json:"phone,omitempty"`
	LogoURL     string             `json:"logoUrl"`
	Description *string            `json:"description,omitempty"`
	Status      enums.SellerStatus `json:"status"`
	Rating      float64            `json:"rating"`
	CreatedAt   time.Time          `json:"createdAt"`
}

// RegisterInput is the seller onboarding payload.
type RegisterInput struct {
	StoreName   string
	Email       string
	CompanyName *string
	Phone       *string
	LogoURL     string
	Description *string
}

// RegisterResult reports the seller profile and the refreshed owner. User is
// set when the role or seller link changed and the session must be reissued.
type RegisterResult struct {
	Seller        *SellerDTO
	AlreadySeller bool
	User          *models.User
}

func FromModel(s *models.Seller) *SellerDTO {
	if s == nil {
		return nil
	}
	return &SellerDTO{
		ID:          s.ID,
		UserID:      s.UserID,
		StoreName:   s.StoreName,
		CompanyName: s.CompanyName,
		Email:       s.Email,
		Phone:       s.Phone,
		LogoURL:     s.LogoURL,
		Description: s.Description,
		Status:      s.Status,
		Rating:      s.Rating,
		CreatedAt:   s.CreatedAt,
	}
}
