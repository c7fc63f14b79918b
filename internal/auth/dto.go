package auth

import (
	"github.com/angelmondragon/autoparts-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the minted session token and the signed-in user.
// The token is delivered as a cookie and never serialized.
type LoginResponse struct {
	Token string         `json:"-"`
	User  *users.UserDTO `json:"user"`
}

// SessionResponse describes the caller's session state.
type SessionResponse struct {
	Authenticated bool           `json:"authenticated"`
	User          *users.UserDTO `json:"user"`
}
