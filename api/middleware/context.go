package middleware

import (
	"context"

	"github.com/google/uuid"

	pkgAuth "github.com/angelmondragon/autoparts-backend/pkg/auth"
	"github.com/angelmondragon/autoparts-backend/pkg/enums"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// WithIdentity stores the authenticated principal on the context.
func WithIdentity(ctx context.Context, identity pkgAuth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}

// IdentityFromContext returns the principal set by Auth or OptionalAuth.
func IdentityFromContext(ctx context.Context) (pkgAuth.Identity, bool) {
	if ctx == nil {
		return pkgAuth.Identity{}, false
	}
	identity, ok := ctx.Value(ctxIdentity).(pkgAuth.Identity)
	if !ok || identity.ID == uuid.Nil {
		return pkgAuth.Identity{}, false
	}
	return identity, true
}

func UserIDFromContext(ctx context.Context) string {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity.ID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	if identity, ok := IdentityFromContext(ctx); ok {
		return identity.Role
	}
	return ""
}
