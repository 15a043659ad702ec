package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/store"
)

// LockoutConfig holds configuration for the failed-attempt lockout tracker.
type LockoutConfig struct {
	// ResetWindow bounds the failed-attempt counter: it starts at the first
	// failure and is not extended by later failures.
	ResetWindow time.Duration
}

// LockoutStatus reports the current lockout state of an account.
type LockoutStatus struct {
	IsLocked         bool
	RemainingSeconds int64
	Attempts         int64
}

// LockoutTracker implements progressive lockout for password login. The
// failed-attempt counter and the lockout flag are independent keys: the
// counter keeps counting across a served lockout, so an attacker who waits
// out a 30s lock and fails again escalates to the next tier, while a
// legitimate user can retry as soon as the lock TTL expires.
type LockoutTracker struct {
	store  *store.Store
	config LockoutConfig
	logger *slog.Logger
}

// NewLockoutTracker creates a new LockoutTracker
func NewLockoutTracker(st *store.Store, config LockoutConfig, logger *slog.Logger) *LockoutTracker {
	if config.ResetWindow <= 0 {
		config.ResetWindow = 30 * time.Minute
	}
	return &LockoutTracker{store: st, config: config, logger: logger}
}

// lockoutDuration maps the attempt number to a lockout duration: no lock for
// the first four failures, then doubling from 30s at the fifth, capped at 30
// minutes from the tenth onward.
func lockoutDuration(attempt int64) time.Duration {
	switch {
	case attempt < 5:
		return 0
	case attempt == 5:
		return 30 * time.Second
	case attempt == 6:
		return 60 * time.Second
	case attempt == 7:
		return 120 * time.Second
	case attempt == 8:
		return 240 * time.Second
	case attempt == 9:
		return 480 * time.Second
	default:
		return 1800 * time.Second
	}
}

// CheckLockout reads the lockout flag's TTL; the account is locked iff the
// TTL is positive. Store failures fail open: availability is prioritized over
// blocking a legitimate user, since the password is still required downstream.
func (t *LockoutTracker) CheckLockout(ctx context.Context, email string) LockoutStatus {
	ttl, err := t.store.TTL(ctx, lockoutKey(email))
	if err != nil {
		t.logger.Error("lockout check failed, failing open", slog.Any("error", err))
		return LockoutStatus{}
	}
	if ttl <= 0 {
		return LockoutStatus{}
	}

	status := LockoutStatus{
		IsLocked:         true,
		RemainingSeconds: int64(ttl.Round(time.Second).Seconds()),
	}

	// The flag stores the attempt count at the time of lock, for messaging.
	if val, found, err := t.store.Get(ctx, lockoutKey(email)); err == nil && found {
		if attempts, err := strconv.ParseInt(val, 10, 64); err == nil {
			status.Attempts = attempts
		}
	}

	return status
}

// TrackAttempt atomically increments the failed-attempt counter and, once the
// escalation table yields a nonzero duration, sets the lockout flag with that
// TTL. Store failures are logged and swallowed so a store outage degrades
// rate-limiting without breaking login outright.
func (t *LockoutTracker) TrackAttempt(ctx context.Context, email string) (attempts int64, lockSeconds int64) {
	count, err := t.store.Incr(ctx, failedAttemptsKey(email))
	if err != nil {
		t.logger.Error("failed to track login attempt", slog.Any("error", err))
		return 0, 0
	}

	if count == 1 {
		if err := t.store.Expire(ctx, failedAttemptsKey(email), t.config.ResetWindow); err != nil {
			t.logger.Error("failed to set attempt window", slog.Any("error", err))
		}
	}

	duration := lockoutDuration(count)
	if duration > 0 {
		if err := t.store.Set(ctx, lockoutKey(email), strconv.FormatInt(count, 10), duration); err != nil {
			t.logger.Error("failed to set lockout flag", slog.Any("error", err))
		}
	}

	return count, int64(duration.Seconds())
}

// ResetAll deletes both the counter and the lockout flag. Called after any
// successful authentication. Idempotent.
func (t *LockoutTracker) ResetAll(ctx context.Context, email string) {
	if err := t.store.Del(ctx, failedAttemptsKey(email), lockoutKey(email)); err != nil {
		t.logger.Error("failed to reset lockout state", slog.Any("error", err))
	}
}
