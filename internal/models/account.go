package models

import (
	"time"
)

type Account struct {
	ID            string
	Email         string
	PasswordHash  string
	Name          string
	Active        bool
	EmailVerified bool
	Role          string // e.g., "user", "admin"

	// Temporary password issued by the unlock flow. Only the hash is stored;
	// Used stays true after redemption even inside the expiry window.
	TempPasswordHash      *string
	TempPasswordExpiresAt *time.Time
	TempPasswordUsed      bool

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasTempPassword reports whether an unredeemed temporary password is set.
func (a *Account) HasTempPassword() bool {
	return a.TempPasswordHash != nil && *a.TempPasswordHash != ""
}

// TempPasswordExpired reports whether the issued temporary password has
// passed its expiry timestamp.
func (a *Account) TempPasswordExpired(now time.Time) bool {
	return a.TempPasswordExpiresAt == nil || now.After(*a.TempPasswordExpiresAt)
}
