package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/autoparts-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// TokenService issues and verifies stateless session tokens.
type TokenService struct {
	secret     []byte
	issuer     string
	ttl        time.Duration
	cookieName string
	now        func() time.Time
}

// NewTokenService validates the session settings once so signing can never
// fail for configuration reasons at request time.
func NewTokenService(cfg config.SessionConfig) (*TokenService, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return &TokenService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		ttl:        cfg.TTL,
		cookieName: name,
		now:        time.Now,
	}, nil
}

// WithClock replaces the time source; used by tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// TTL is the default lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs identity into a token valid for ttl, or the configured default
// when ttl is not positive.
func (s *TokenService) Issue(identity Identity, ttl time.Duration) (string, error) {
	if identity.ID == uuid.Nil {
		return "", errors.New("identity id is required")
	}
	if !identity.Role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", identity.Role)
	}
	if ttl <= 0 {
		ttl = s.ttl
	}

	now := s.now()
	claims := newSessionClaims(identity, jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   identity.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	})

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Verify returns the identity in token when the signature, algorithm, issuer
// and expiry all check out. Every failure is reported as false.
func (s *TokenService) Verify(token string) (Identity, bool) {
	claims, err := s.parse(strings.TrimSpace(token))
	if err != nil {
		return Identity{}, false
	}
	return claims.Identity()
}

func (s *TokenService) parse(token string) (*SessionClaims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			if t.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	// Tokens minted before issuers were stamped carry no iss at all.
	if claims.Issuer != "" && s.issuer != "" && claims.Issuer != s.issuer {
		return nil, fmt.Errorf("unexpected issuer %q", claims.Issuer)
	}
	return claims, nil
}
