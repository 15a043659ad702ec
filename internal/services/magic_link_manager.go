package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/store"
	pkgauth "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/auth"
)

// MagicLinkConfig holds magic-link lifecycle settings.
type MagicLinkConfig struct {
	TokenBytes int
	Expiry     time.Duration
	Cooldown   time.Duration
}

// MagicLinkSendResult carries the metadata returned after a send.
type MagicLinkSendResult struct {
	ExpiresIn       int64 `json:"expires_in"`
	CooldownSeconds int64 `json:"cooldown"`
}

// LinkBuilder turns an email/token pair into the URL embedded in the email.
type LinkBuilder func(email, token string) string

// MagicLinkManager mirrors the OTP lifecycle minus the failed-attempt
// lockout: a failed verification does not lock the account, only the token's
// own expiry bounds the attack window.
type MagicLinkManager struct {
	store     *store.Store
	config    MagicLinkConfig
	email     EmailService
	buildLink LinkBuilder
	logger    *slog.Logger
}

// NewMagicLinkManager creates a new MagicLinkManager
func NewMagicLinkManager(st *store.Store, config MagicLinkConfig, email EmailService, buildLink LinkBuilder, logger *slog.Logger) *MagicLinkManager {
	return &MagicLinkManager{store: st, config: config, email: email, buildLink: buildLink, logger: logger}
}

// Send generates a fresh token, stores its hash with the configured expiry
// and dispatches the link by email. Rejected while the cooldown is active.
func (m *MagicLinkManager) Send(ctx context.Context, email, locale string) (*MagicLinkSendResult, error) {
	ttl, err := m.store.TTL(ctx, magicLinkCooldownKey(email))
	if err != nil {
		m.logger.Error("magic link cooldown check failed, permitting", slog.Any("error", err))
	} else if ttl > 0 {
		return nil, &models.RateLimitedError{
			RetryAfterSeconds: int64(ttl.Round(time.Second).Seconds()),
			Reason:            "cooldown",
		}
	}

	token, err := pkgauth.GenerateToken(m.config.TokenBytes)
	if err != nil {
		m.logger.Error("failed to generate magic link token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := pkgauth.HashSecret(token)
	if err != nil {
		m.logger.Error("failed to hash magic link token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := m.store.Set(ctx, magicLinkKey(email), hash, m.config.Expiry); err != nil {
		m.logger.Error("failed to store magic link hash", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := m.store.Set(ctx, magicLinkCooldownKey(email), cooldownSentinel, m.config.Cooldown); err != nil {
		m.logger.Error("failed to set magic link cooldown", slog.Any("error", err))
	}

	link := m.buildLink(email, token)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.email.SendMagicLinkEmail(ctx, email, link, m.config.Expiry, locale); err != nil {
			m.logger.Error("failed to dispatch magic link email", slog.Any("error", err))
		}
	}()

	return &MagicLinkSendResult{
		ExpiresIn:       int64(m.config.Expiry.Seconds()),
		CooldownSeconds: int64(m.config.Cooldown.Seconds()),
	}, nil
}

// Verify compares the submitted token against the stored hash. On success
// the token and its cooldown key are deleted before success is returned.
func (m *MagicLinkManager) Verify(ctx context.Context, email, submittedToken string) error {
	hash, found, err := m.store.Get(ctx, magicLinkKey(email))
	if err != nil {
		m.logger.Error("failed to fetch magic link hash", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !found {
		return &models.InvalidCredentialError{RemainingAttempts: -1}
	}

	if !pkgauth.CompareSecret(hash, submittedToken) {
		return &models.InvalidCredentialError{RemainingAttempts: -1}
	}

	if err := m.store.Del(ctx, magicLinkKey(email), magicLinkCooldownKey(email)); err != nil {
		m.logger.Error("failed to clean up magic link keys", slog.Any("error", err))
	}
	return nil
}
