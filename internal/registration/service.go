package registration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/autoparts-backend/internal/mailer"
	"github.com/angelmondragon/autoparts-backend/internal/users"
	"github.com/angelmondragon/autoparts-backend/pkg/config"
	"github.com/angelmondragon/autoparts-backend/pkg/db"
	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
	"github.com/angelmondragon/autoparts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/autoparts-backend/pkg/errors"
	"github.com/angelmondragon/autoparts-backend/pkg/logger"
	"github.com/angelmondragon/autoparts-backend/pkg/security"
)

const codeLength = 6

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type mailQueue interface {
	EnqueueVerification(ctx context.Context, v mailer.VerificationEmail) error
}

// Service drives a signup from pending to verified. A pending record expires
// lazily: the first verify or resend after the deadline deletes it.
type Service interface {
	Register(ctx context.Context, input RegisterInput) error
	Resend(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (*models.User, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

// ServiceParams wires the registration service.
type ServiceParams struct {
	Repo      *Repository
	Users     *users.Repository
	Tx        txRunner
	Mail      mailQueue
	Config    config.RegistrationConfig
	Passwords config.PasswordConfig
	Logger    *logger.Logger
	Now       func() time.Time
	NewCode   func() (string, error)
}

type service struct {
	repo      *Repository
	users     *users.Repository
	tx        txRunner
	mail      mailQueue
	codeTTL   time.Duration
	cooldown  time.Duration
	passwords config.PasswordConfig
	logg      *logger.Logger
	now       func() time.Time
	newCode   func() (string, error)
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("pending registration repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Mail == nil {
		return nil, fmt.Errorf("mail queue required")
	}
	if params.Config.CodeTTL <= 0 || params.Config.ResendCooldown <= 0 {
		return nil, fmt.Errorf("code ttl and resend cooldown must be positive")
	}
	svc := &service{
		repo:      params.Repo,
		users:     params.Users,
		tx:        params.Tx,
		mail:      params.Mail,
		codeTTL:   params.Config.CodeTTL,
		cooldown:  params.Config.ResendCooldown,
		passwords: params.Passwords,
		logg:      params.Logger,
		now:       params.Now,
		newCode:   params.NewCode,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newCode == nil {
		svc.newCode = func() (string, error) { return security.RandomDigits(codeLength) }
	}
	return svc, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	email := NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check existing user")
	}
	if exists {
		return pkgerrors.New(pkgerrors.CodeConflict, "Email already registered")
	}

	hash, err := security.HashPassword(input.Password, s.passwords)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	code, err := s.newCode()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification code")
	}

	now := s.now().UTC()
	pending := &models.PendingRegistration{
		Email:             email,
		Name:              name,
		PasswordHash:      hash,
		Code:              code,
		CodeExpiresAt:     now.Add(s.codeTTL),
		ResendAvailableAt: now.Add(s.cooldown),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Upsert(ctx, pending); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert pending registration")
	}

	s.sendCode(ctx, email, name, code)
	return nil
}

func (s *service) Resend(ctx context.Context, rawEmail string) error {
	email := NormalizeEmail(rawEmail)
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Email is required")
	}

	pending, err := s.load(ctx, email, "No pending registration for this email")
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if pending.Expired(now) {
		return s.expire(ctx, email)
	}
	if wait := pending.ResendAvailableAt.Sub(now); wait > 0 {
		seconds := int(math.Ceil(wait.Seconds()))
		return pkgerrors.New(pkgerrors.CodeRateLimit, fmt.Sprintf("Please wait %ds before resending", seconds)).
			WithDetails(map[string]any{"retry_after_seconds": seconds})
	}

	code, err := s.newCode()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification code")
	}
	if err := s.repo.ReplaceCode(ctx, email, code, now.Add(s.codeTTL), now.Add(s.cooldown)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "No pending registration for this email")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace verification code")
	}

	s.sendCode(ctx, email, pending.Name, code)
	return nil
}

// Verify promotes the pending signup to a customer account. The user insert
// and the pending delete commit together.
func (s *service) Verify(ctx context.Context, rawEmail, code string) (*models.User, error) {
	email := NormalizeEmail(rawEmail)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email and code are required")
	}

	pending, err := s.load(ctx, email, "No pending registration found")
	if err != nil {
		return nil, err
	}
	if pending.Expired(s.now().UTC()) {
		return nil, s.expire(ctx, email)
	}
	if !security.EqualConstantTime(pending.Code, code) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid verification code")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check existing user")
	}
	if exists {
		return nil, s.conflict(ctx, email)
	}

	var created *models.User
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := s.users.WithTx(tx).Create(ctx, users.CreateUserDTO{
			Name:         pending.Name,
			Email:        pending.Email,
			PasswordHash: pending.PasswordHash,
			Role:         enums.UserRoleCustomer,
		})
		if err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Delete(ctx, email); err != nil {
			return err
		}
		created = user
		return nil
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, s.conflict(ctx, email)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: promote pending registration")
	}

	s.logg.Info(s.logg.WithUserID(ctx, created.ID.String()), "registration.verified")
	return created, nil
}

func (s *service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: purge expired registrations")
	}
	return n, nil
}

func (s *service) load(ctx context.Context, email, notFoundMsg string) (*models.PendingRegistration, error) {
	pending, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load pending registration")
	}
	return pending, nil
}

func (s *service) expire(ctx context.Context, email string) error {
	if err := s.repo.Delete(ctx, email); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete expired registration")
	}
	return pkgerrors.New(pkgerrors.CodeExpired, "Verification code expired, please register again")
}

// conflict purges the stale pending record once a real account owns the email.
func (s *service) conflict(ctx context.Context, email string) error {
	if err := s.repo.Delete(ctx, email); err != nil {
		s.logg.Error(ctx, "registration.conflict_purge_failed", err)
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "Email already registered")
}

// sendCode hands the email to the mail pipeline. Delivery is fire-and-forget:
// the client can always ask for a resend.
func (s *service) sendCode(ctx context.Context, email, name, code string) {
	err := s.mail.EnqueueVerification(ctx, mailer.VerificationEmail{
		To:               email,
		Name:             name,
		Code:             code,
		ExpiresInMinutes: int(s.codeTTL / time.Minute),
	})
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "email", email), "registration.enqueue_failed", err)
	}
}
