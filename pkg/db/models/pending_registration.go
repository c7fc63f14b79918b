package models

import "time"

// PendingRegistration stages an unverified signup keyed by lowercase email.
type PendingRegistration struct {
	Email             string    `gorm:"column:email;primaryKey"`
	Name              string    `gorm:"column:name;not null"`
	PasswordHash      string    `gorm:"column:password_hash;not null"`
	Code              string    `gorm:"column:code;not null"`
	CodeExpiresAt     time.Time `gorm:"column:code_expires_at;not null"`
	ResendAvailableAt time.Time `gorm:"column:resend_available_at;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Expired reports whether the code can no longer be used at now.
func (p PendingRegistration) Expired(now time.Time) bool {
	return now.After(p.CodeExpiresAt)
}
