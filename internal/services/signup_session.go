package services

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/store"
	pkgauth "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/auth"
)

// SignupSessionConfig holds signup-session settings.
type SignupSessionConfig struct {
	TokenBytes int
	Expiry     time.Duration
}

// SignupSessionManager issues the single-use token that proves OTP
// verification happened, consumed at signup completion. The token is a
// bearer reference rather than a password-equivalent secret, so it is stored
// as-is; equality is still checked exactly. Single use is enforced by the
// caller's verify -> create -> clear sequence.
type SignupSessionManager struct {
	store  *store.Store
	config SignupSessionConfig
	logger *slog.Logger
}

// NewSignupSessionManager creates a new SignupSessionManager
func NewSignupSessionManager(st *store.Store, config SignupSessionConfig, logger *slog.Logger) *SignupSessionManager {
	return &SignupSessionManager{store: st, config: config, logger: logger}
}

// Issue generates a session token and stores it with the session expiry.
func (m *SignupSessionManager) Issue(ctx context.Context, email string) (string, error) {
	token, err := pkgauth.GenerateToken(m.config.TokenBytes)
	if err != nil {
		m.logger.Error("failed to generate signup session token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if err := m.store.Set(ctx, signupSessionKey(email), token, m.config.Expiry); err != nil {
		m.logger.Error("failed to store signup session", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	return token, nil
}

// Verify checks the submitted token against the stored value without
// consuming it, so the caller can validate business rules before tearing the
// session down with Clear.
func (m *SignupSessionManager) Verify(ctx context.Context, email, submittedToken string) (bool, error) {
	stored, found, err := m.store.Get(ctx, signupSessionKey(email))
	if err != nil {
		m.logger.Error("failed to fetch signup session", slog.Any("error", err))
		return false, models.ErrInternalServer
	}
	if !found || submittedToken == "" {
		return false, nil
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(submittedToken)) == 1, nil
}

// Clear deletes the session key. Called after signup completion, or on
// failure paths that must force re-verification.
func (m *SignupSessionManager) Clear(ctx context.Context, email string) {
	if err := m.store.Del(ctx, signupSessionKey(email)); err != nil {
		m.logger.Error("failed to clear signup session", slog.Any("error", err))
	}
}
