package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/autoparts-backend/internal/users"
	pkgAuth "github.com/angelmondragon/autoparts-backend/pkg/auth"
	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
	"github.com/angelmondragon/autoparts-backend/pkg/security"
)

const invalidCredentialsMessage = "Invalid credentials"

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Session(ctx context.Context, token string) *SessionResponse
	IssueFor(user *models.User) (string, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type tokenIssuer interface {
	Issue(identity pkgAuth.Identity, ttl time.Duration) (string, error)
	Verify(token string) (pkgAuth.Identity, bool)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo userRepository
	Tokens   tokenIssuer
	Logger   *logger.Logger
}

type service struct {
	users  userRepository
	tokens tokenIssuer
	logg   *logger.Logger
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{users: params.UserRepo, tokens: params.Tokens, logg: logg}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		if errors.Is(err, security.ErrInvalidHash) {
			s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "auth.login.unreadable_hash")
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	token, err := s.IssueFor(user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, User: users.FromModel(user)}, nil
}

// Session resolves the token to the current user. The stored user wins over
// the token claims so role and seller changes show up without a new login.
func (s *service) Session(ctx context.Context, token string) *SessionResponse {
	anonymous := &SessionResponse{}
	if strings.TrimSpace(token) == "" {
		return anonymous
	}
	identity, ok := s.tokens.Verify(token)
	if !ok {
		return anonymous
	}

	user, err := s.users.FindByID(ctx, identity.ID)
	switch {
	case err == nil:
		return &SessionResponse{Authenticated: true, User: users.FromModel(user)}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return anonymous
	default:
		s.logg.Error(s.logg.WithUserID(ctx, identity.ID.String()), "auth.session.lookup_failed", err)
		return &SessionResponse{Authenticated: true, User: users.FromIdentity(identity)}
	}
}

// IssueFor mints a session token for the stored user with the default TTL.
func (s *service) IssueFor(user *models.User) (string, error) {
	if user == nil {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "user required to issue session")
	}
	token, err := s.tokens.Issue(users.Identity(user), 0)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue session token")
	}
	return token, nil
}
