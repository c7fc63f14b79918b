package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/autoparts-backend/pkg/auth"
	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	"github.com/angelmondragon/autoparts-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Role      enums.UserRole `json:"role"`
	SellerID  *uuid.UUID     `json:"sellerId,omitempty"`
	CreatedAt *time.Time     `json:"createdAt,omitempty"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Role         enums.UserRole
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	created := u.CreatedAt
	return &UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		SellerID:  u.SellerID,
		CreatedAt: &created,
	}
}

// FromIdentity renders a session identity when no fresher row is available.
func FromIdentity(id auth.Identity) *UserDTO {
	return &UserDTO{
		ID:       id.ID,
		Name:     id.Name,
		Email:    id.Email,
		Role:     id.Role,
		SellerID: id.SellerID,
	}
}

// Identity projects the persisted user into the claims carried by a session token.
func Identity(u *models.User) auth.Identity {
	return auth.Identity{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		SellerID: u.SellerID,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if !role.IsValid() {
		role = enums.UserRoleCustomer
	}
	return &models.User{
		Name:         strings.TrimSpace(c.Name),
		Email:        strings.ToLower(strings.TrimSpace(c.Email)),
		PasswordHash: c.PasswordHash,
		Role:         role,
	}
}
