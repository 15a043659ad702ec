package models

import "time"

// Login methods recorded in the login history.
const (
	LoginMethodPassword     = "password"
	LoginMethodOTP          = "otp"
	LoginMethodMagicLink    = "magic_link"
	LoginMethodTempPassword = "temp_password"
)

// LoginHistoryEntry records the outcome of a single authentication attempt.
// Every failed-attempt path writes an entry before raising its error so
// failures are auditable even though the user-facing response is generic.
type LoginHistoryEntry struct {
	ID            string
	Email         string
	Method        string
	IPAddress     string
	UserAgent     string
	AttemptTime   time.Time
	Success       bool
	FailureReason *string
	ExpiresAt     time.Time
}
