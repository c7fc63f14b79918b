package registration

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/autoparts-backend/pkg/db/models"
)

// Repository persists pending registrations keyed by normalized email.
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

// Upsert inserts the record or replaces the pending signup for the same email.
func (r *Repository) Upsert(ctx context.Context, pending *models.PendingRegistration) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"password_hash",
				"code",
				"code_expires_at",
				"resend_available_at",
				"updated_at",
			}),
		}).
		Create(pending).Error
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.PendingRegistration, error) {
	var pending models.PendingRegistration
	if err := r.db.WithContext(ctx).First(&pending, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &pending, nil
}

// ReplaceCode swaps in a fresh code and resets both timers.
func (r *Repository) ReplaceCode(ctx context.Context, email, code string, expiresAt, resendAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.PendingRegistration{}).
		Where("email = ?", email).
		Updates(map[string]any{
			"code":                code,
			"code_expires_at":     expiresAt,
			"resend_available_at": resendAt,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).
		Where("email = ?", email).
		Delete(&models.PendingRegistration{}).Error
}

// DeleteExpired removes every record whose code expired before now.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("code_expires_at < ?", now).
		Delete(&models.PendingRegistration{})
	return res.RowsAffected, res.Error
}
