package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/store"
	pkgauth "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/auth"
)

// UnlockConfig holds settings for the self-service unlock flow.
type UnlockConfig struct {
	Cooldown           time.Duration // between unlock requests, per account
	MaxPerWindow       int64         // unlock requests per rate window
	RateWindow         time.Duration
	TempPasswordLength int
	TempPasswordTTL    time.Duration
}

// UnlockManager implements the rate-limited temporary-password flow for
// redeeming a locked account. The temporary password itself lives on the
// account record (hash, expiry, used flag); only the cooldown and hourly
// counter are TTL-store state.
type UnlockManager struct {
	store   *store.Store
	tracker *LockoutTracker
	repo    AccountRepository
	email   EmailService
	config  UnlockConfig
	logger  *slog.Logger
}

// NewUnlockManager creates a new UnlockManager
func NewUnlockManager(st *store.Store, tracker *LockoutTracker, repo AccountRepository, email EmailService, config UnlockConfig, logger *slog.Logger) *UnlockManager {
	return &UnlockManager{store: st, tracker: tracker, repo: repo, email: email, config: config, logger: logger}
}

// Request issues a temporary password for a locked account. Unknown emails
// still set the cooldown and return success so the endpoint cannot be used
// to enumerate accounts; a known-but-unlocked or inactive account fails with
// a state error.
func (m *UnlockManager) Request(ctx context.Context, email, locale string) error {
	ttl, err := m.store.TTL(ctx, unlockCooldownKey(email))
	if err != nil {
		m.logger.Error("unlock cooldown check failed, permitting", slog.Any("error", err))
	} else if ttl > 0 {
		return &models.RateLimitedError{
			RetryAfterSeconds: int64(ttl.Round(time.Second).Seconds()),
			Reason:            "cooldown",
		}
	}

	if err := m.enforceRateWindow(ctx, email); err != nil {
		return err
	}

	account, err := m.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			m.setCooldown(ctx, email)
			return nil
		}
		m.logger.Error("failed to look up account for unlock", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if !account.Active {
		return models.ErrAccountInactive
	}

	// Unlock is only meaningful while a failed-attempt lockout is in effect.
	if status := m.tracker.CheckLockout(ctx, email); !status.IsLocked {
		return models.ErrAccountNotLocked
	}

	tempPassword, err := pkgauth.GenerateTempPassword(m.config.TempPasswordLength)
	if err != nil {
		m.logger.Error("failed to generate temp password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	hash, err := pkgauth.HashSecret(tempPassword)
	if err != nil {
		m.logger.Error("failed to hash temp password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	expiresAt := time.Now().Add(m.config.TempPasswordTTL)
	if err := m.repo.StoreTempPassword(ctx, account.ID, hash, expiresAt); err != nil {
		m.logger.Error("failed to persist temp password", slog.String("account_id", account.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.email.SendTempPasswordEmail(ctx, email, tempPassword, m.config.TempPasswordTTL, locale); err != nil {
			m.logger.Error("failed to dispatch temp password email", slog.Any("error", err))
		}
	}()

	m.setCooldown(ctx, email)
	return nil
}

// Verify redeems a temporary password: on match the failed-attempt state is
// reset and the credential is marked used so it cannot be redeemed twice
// even inside its expiry window. The caller completes the login afterwards.
func (m *UnlockManager) Verify(ctx context.Context, email, submitted string) (*models.Account, error) {
	account, err := m.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, &models.InvalidCredentialError{RemainingAttempts: -1}
		}
		m.logger.Error("failed to look up account for unlock verify", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !account.HasTempPassword() {
		return nil, models.ErrTempPasswordMissing
	}
	if account.TempPasswordUsed {
		return nil, models.ErrTempPasswordUsed
	}
	if account.TempPasswordExpired(time.Now()) {
		return nil, models.ErrTempPasswordExpired
	}

	if !pkgauth.CompareSecret(*account.TempPasswordHash, submitted) {
		return nil, &models.InvalidCredentialError{RemainingAttempts: -1}
	}

	m.tracker.ResetAll(ctx, email)

	if err := m.repo.MarkTempPasswordUsed(ctx, account.ID); err != nil {
		m.logger.Error("failed to mark temp password used", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return account, nil
}

func (m *UnlockManager) enforceRateWindow(ctx context.Context, email string) error {
	count, err := m.store.Incr(ctx, unlockRateKey(email))
	if err != nil {
		m.logger.Error("unlock rate count failed, permitting", slog.Any("error", err))
		return nil
	}
	if count == 1 {
		if err := m.store.Expire(ctx, unlockRateKey(email), m.config.RateWindow); err != nil {
			m.logger.Error("failed to set unlock rate window", slog.Any("error", err))
		}
	}

	if count > m.config.MaxPerWindow {
		retry := int64(0)
		if ttl, err := m.store.TTL(ctx, unlockRateKey(email)); err == nil && ttl > 0 {
			retry = int64(ttl.Round(time.Second).Seconds())
		}
		return &models.RateLimitedError{RetryAfterSeconds: retry, Reason: "request_limit"}
	}

	return nil
}

func (m *UnlockManager) setCooldown(ctx context.Context, email string) {
	if err := m.store.Set(ctx, unlockCooldownKey(email), cooldownSentinel, m.config.Cooldown); err != nil {
		m.logger.Error("failed to set unlock cooldown", slog.Any("error", err))
	}
}
