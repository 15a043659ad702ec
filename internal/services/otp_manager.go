package services

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/store"
	pkgauth "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/auth"
)

// OTPConfig parameterizes one OTP lifecycle. The same manager serves signup
// and login; only the namespace and limits differ per call site.
type OTPConfig struct {
	Namespace         string // "signup" or "login"; also selects the email wording
	CodeLength        int
	Expiry            time.Duration
	Cooldown          time.Duration
	MaxResends        int64
	ResendWindow      time.Duration
	MaxFailedAttempts int64
	LockoutDuration   time.Duration
}

// OTPSendResult carries the metadata returned to the client after a send.
type OTPSendResult struct {
	ExpiresIn       int64 `json:"expires_in"`
	CooldownSeconds int64 `json:"cooldown"`
}

// OTPManager drives the full lifecycle of one OTP namespace: generation,
// hashed storage, verification, cooldown, resend limiting and failure
// lockout. A consumed or locked code tears down all four related keys.
type OTPManager struct {
	store  *store.Store
	config OTPConfig
	email  EmailService
	logger *slog.Logger
}

// NewOTPManager creates a new OTPManager
func NewOTPManager(st *store.Store, config OTPConfig, email EmailService, logger *slog.Logger) *OTPManager {
	return &OTPManager{store: st, config: config, email: email, logger: logger}
}

// Send generates a fresh code, stores its hash with the configured expiry
// (overwriting any prior code) and dispatches it by email. Rejected with
// RateLimitedError while the cooldown key exists or once the resend counter
// has reached its maximum.
func (m *OTPManager) Send(ctx context.Context, email, locale string) (*OTPSendResult, error) {
	if retry, limited := m.cooldownRemaining(ctx, email); limited {
		return nil, &models.RateLimitedError{RetryAfterSeconds: retry, Reason: "cooldown"}
	}

	if err := m.checkResendLimit(ctx, email); err != nil {
		return nil, err
	}

	code, err := pkgauth.GenerateOTPCode(m.config.CodeLength)
	if err != nil {
		m.logger.Error("failed to generate otp code", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := pkgauth.HashSecret(code)
	if err != nil {
		m.logger.Error("failed to hash otp code", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := m.store.Set(ctx, otpKey(m.config.Namespace, email), hash, m.config.Expiry); err != nil {
		m.logger.Error("failed to store otp hash", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Cooldown and resend accounting degrade gracefully: a store hiccup here
	// must not unwind an already-stored code.
	if err := m.store.Set(ctx, otpCooldownKey(m.config.Namespace, email), cooldownSentinel, m.config.Cooldown); err != nil {
		m.logger.Error("failed to set otp cooldown", slog.Any("error", err))
	}

	count, err := m.store.Incr(ctx, otpResendKey(m.config.Namespace, email))
	if err != nil {
		m.logger.Error("failed to count otp resend", slog.Any("error", err))
	} else if count == 1 {
		if err := m.store.Expire(ctx, otpResendKey(m.config.Namespace, email), m.config.ResendWindow); err != nil {
			m.logger.Error("failed to set otp resend window", slog.Any("error", err))
		}
	}

	m.dispatch(email, code, locale)

	return &OTPSendResult{
		ExpiresIn:       int64(m.config.Expiry.Seconds()),
		CooldownSeconds: int64(m.config.Cooldown.Seconds()),
	}, nil
}

// Verify compares the submitted code against the stored hash. An account that
// already reached the failed-attempt maximum is rejected up front without
// consuming a comparison. On match all four related keys are deleted before
// success is returned; the caller handles the follow-up (session issuance or
// login completion).
func (m *OTPManager) Verify(ctx context.Context, email, submittedCode string) error {
	if m.isLocked(ctx, email) {
		return &models.OTPLockedError{}
	}

	hash, found, err := m.store.Get(ctx, otpKey(m.config.Namespace, email))
	if err != nil {
		m.logger.Error("failed to fetch otp hash", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !found {
		return &models.InvalidCredentialError{RemainingAttempts: -1}
	}

	if !pkgauth.CompareSecret(hash, submittedCode) {
		return m.trackFailure(ctx, email)
	}

	m.cleanup(ctx, email)
	return nil
}

// cooldownRemaining reports the remaining cooldown, failing open on store
// errors since the code's own integrity is unaffected.
func (m *OTPManager) cooldownRemaining(ctx context.Context, email string) (int64, bool) {
	ttl, err := m.store.TTL(ctx, otpCooldownKey(m.config.Namespace, email))
	if err != nil {
		m.logger.Error("otp cooldown check failed, permitting", slog.Any("error", err))
		return 0, false
	}
	if ttl <= 0 {
		return 0, false
	}
	return int64(ttl.Round(time.Second).Seconds()), true
}

func (m *OTPManager) checkResendLimit(ctx context.Context, email string) error {
	val, found, err := m.store.Get(ctx, otpResendKey(m.config.Namespace, email))
	if err != nil {
		m.logger.Error("otp resend check failed, permitting", slog.Any("error", err))
		return nil
	}
	if !found {
		return nil
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil || count < m.config.MaxResends {
		return nil
	}

	retry := int64(0)
	if ttl, err := m.store.TTL(ctx, otpResendKey(m.config.Namespace, email)); err == nil && ttl > 0 {
		retry = int64(ttl.Round(time.Second).Seconds())
	}
	return &models.RateLimitedError{RetryAfterSeconds: retry, Reason: "resend_limit"}
}

// isLocked fails open on store errors: the code itself is still required.
func (m *OTPManager) isLocked(ctx context.Context, email string) bool {
	val, found, err := m.store.Get(ctx, otpFailedKey(m.config.Namespace, email))
	if err != nil {
		m.logger.Error("otp lock check failed, failing open", slog.Any("error", err))
		return false
	}
	if !found {
		return false
	}
	count, err := strconv.ParseInt(val, 10, 64)
	return err == nil && count >= m.config.MaxFailedAttempts
}

func (m *OTPManager) trackFailure(ctx context.Context, email string) error {
	count, err := m.store.Incr(ctx, otpFailedKey(m.config.Namespace, email))
	if err != nil {
		m.logger.Error("failed to count otp failure", slog.Any("error", err))
		return &models.InvalidCredentialError{RemainingAttempts: -1}
	}
	if count == 1 {
		if err := m.store.Expire(ctx, otpFailedKey(m.config.Namespace, email), m.config.LockoutDuration); err != nil {
			m.logger.Error("failed to set otp lockout window", slog.Any("error", err))
		}
	}

	remaining := m.config.MaxFailedAttempts - count
	if remaining > 0 {
		return &models.InvalidCredentialError{RemainingAttempts: int(remaining)}
	}

	// The dead code, cooldown and resend counter are torn down, but the
	// failed counter stays: its TTL is the lockout duration and the lock
	// check reads it.
	if err := m.store.Del(ctx,
		otpKey(m.config.Namespace, email),
		otpCooldownKey(m.config.Namespace, email),
		otpResendKey(m.config.Namespace, email),
	); err != nil {
		m.logger.Error("failed to clean up locked otp keys", slog.Any("error", err))
	}
	return &models.OTPLockedError{}
}

// cleanup deletes all four related keys after a successful verify, before
// success is returned to the caller.
func (m *OTPManager) cleanup(ctx context.Context, email string) {
	keys := []string{
		otpKey(m.config.Namespace, email),
		otpCooldownKey(m.config.Namespace, email),
		otpFailedKey(m.config.Namespace, email),
		otpResendKey(m.config.Namespace, email),
	}
	if err := m.store.Del(ctx, keys...); err != nil {
		m.logger.Error("failed to clean up otp keys", slog.Any("error", err))
	}
}

func (m *OTPManager) dispatch(email, code, locale string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.email.SendOTPEmail(ctx, email, code, m.config.Expiry, m.config.Namespace, locale); err != nil {
			m.logger.Error("failed to dispatch otp email", slog.Any("error", err))
		}
	}()
}
