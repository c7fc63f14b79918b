package auth

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/autoparts-backend/pkg/enums"
)

// Identity is the authenticated principal carried by a session token.
type Identity struct {
	ID       uuid.UUID
	Name     string
	Email    string
	Role     enums.UserRole
	SellerID *uuid.UUID
}

// IsSeller reports whether the identity may act on seller resources.
func (i Identity) IsSeller() bool {
	return i.Role == enums.UserRoleSeller || i.Role == enums.UserRoleAdmin
}

// userClaims is the canonical identity block, carried under "user".
type userClaims struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	SellerID string `json:"sellerId,omitempty"`
}

// SessionClaims is the wire form of a session token. Tokens issued here always
// use the nested "user" block; older tokens put the same fields at the top
// level, keyed by userId, id or _id.
type SessionClaims struct {
	User *userClaims `json:"user,omitempty"`

	FlatUserID   string `json:"userId,omitempty"`
	FlatID       string `json:"id,omitempty"`
	FlatLegacyID string `json:"_id,omitempty"`
	FlatName     string `json:"name,omitempty"`
	FlatEmail    string `json:"email,omitempty"`
	FlatRole     string `json:"role,omitempty"`
	FlatSellerID string `json:"sellerId,omitempty"`

	jwt.RegisteredClaims
}

func newSessionClaims(identity Identity, registered jwt.RegisteredClaims) SessionClaims {
	user := &userClaims{
		ID:    identity.ID.String(),
		Name:  identity.Name,
		Email: identity.Email,
		Role:  identity.Role.String(),
	}
	if identity.SellerID != nil {
		user.SellerID = identity.SellerID.String()
	}
	return SessionClaims{User: user, RegisteredClaims: registered}
}

// canonical folds either token shape into the nested form.
func (c SessionClaims) canonical() userClaims {
	if c.User != nil {
		return *c.User
	}
	return userClaims{
		ID:       firstNonEmpty(c.FlatUserID, c.FlatID, c.FlatLegacyID, c.Subject),
		Name:     c.FlatName,
		Email:    c.FlatEmail,
		Role:     c.FlatRole,
		SellerID: c.FlatSellerID,
	}
}

// Identity decodes the claims into an Identity. It fails only when no usable
// subject id is present; unknown roles degrade to customer and an unparsable
// seller id is dropped.
func (c SessionClaims) Identity() (Identity, bool) {
	user := c.canonical()

	id, err := uuid.Parse(strings.TrimSpace(user.ID))
	if err != nil || id == uuid.Nil {
		return Identity{}, false
	}

	role, err := enums.ParseUserRole(user.Role)
	if err != nil {
		role = enums.UserRoleCustomer
	}

	identity := Identity{
		ID:    id,
		Name:  user.Name,
		Email: strings.ToLower(strings.TrimSpace(user.Email)),
		Role:  role,
	}
	if sellerID, err := uuid.Parse(strings.TrimSpace(user.SellerID)); err == nil && sellerID != uuid.Nil {
		identity.SellerID = &sellerID
	}
	return identity, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
