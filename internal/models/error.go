package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrAccountInactive  = errors.New("account is inactive")
	ErrEmailNotVerified = errors.New("email address not verified")
	ErrAccountNotLocked = errors.New("account is not locked")

	// Ephemeral credential state errors
	ErrSessionInvalid      = errors.New("signup session is invalid or expired")
	ErrTempPasswordMissing = errors.New("no temporary password issued")
	ErrTempPasswordExpired = errors.New("temporary password expired")
	ErrTempPasswordUsed    = errors.New("temporary password already used")
)

// RateLimitedError is returned when a cooldown is active or a send/request
// limit has been exhausted. RetryAfterSeconds is 0 when the caller must wait
// out a fixed window rather than a measurable TTL.
type RateLimitedError struct {
	RetryAfterSeconds int64
	Reason            string // "cooldown", "resend_limit", "request_limit"
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfterSeconds > 0 {
		return fmt.Sprintf("rate limited (%s): retry in %ds", e.Reason, e.RetryAfterSeconds)
	}
	return fmt.Sprintf("rate limited (%s)", e.Reason)
}

// AccountLockedError is returned while a failed-attempt lockout is in effect.
type AccountLockedError struct {
	RemainingSeconds int64
	Attempts         int64
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked: %ds remaining", e.RemainingSeconds)
}

// InvalidCredentialError covers wrong password, wrong OTP, wrong magic-link
// token and wrong temporary password. RemainingAttempts is -1 when the flow
// does not count attempts (password, magic link); OTP verification sets it to
// the attempts left before the code locks.
type InvalidCredentialError struct {
	RemainingAttempts int
}

func (e *InvalidCredentialError) Error() string {
	if e.RemainingAttempts >= 0 {
		return fmt.Sprintf("invalid credential: %d attempts remaining", e.RemainingAttempts)
	}
	return "invalid credential"
}

// OTPLockedError is returned once OTP verification failures reach the
// configured maximum; further submissions are refused for the lockout
// duration without being compared.
type OTPLockedError struct{}

func (e *OTPLockedError) Error() string {
	return "verification attempts exceeded"
}
