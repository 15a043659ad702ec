package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
)

// UnlockService glues the unlock manager to the shared login-completion
// path, recording failed redemptions in the login history like every other
// failed-attempt path.
type UnlockService struct {
	manager *UnlockManager
	auth    *AuthService
	logger  *slog.Logger
}

// NewUnlockService creates a new UnlockService
func NewUnlockService(manager *UnlockManager, auth *AuthService, logger *slog.Logger) *UnlockService {
	return &UnlockService{manager: manager, auth: auth, logger: logger}
}

// Request asks for a temporary password. The response is identical whether
// or not the account exists.
func (s *UnlockService) Request(ctx context.Context, email string, meta RequestMeta) error {
	return s.manager.Request(ctx, email, meta.Locale)
}

// Verify redeems a temporary password and completes the login.
func (s *UnlockService) Verify(ctx context.Context, email, tempPassword string, meta RequestMeta) (*models.TokenPair, error) {
	account, err := s.manager.Verify(ctx, email, tempPassword)
	if err != nil {
		s.auth.recordFailure(ctx, email, models.LoginMethodTempPassword, meta, unlockFailureReason(err))
		return nil, err
	}

	return s.auth.CompleteLogin(ctx, account, models.LoginMethodTempPassword, meta)
}

func unlockFailureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrTempPasswordMissing):
		return "temp_password_missing"
	case errors.Is(err, models.ErrTempPasswordExpired):
		return "temp_password_expired"
	case errors.Is(err, models.ErrTempPasswordUsed):
		return "temp_password_used"
	default:
		return "invalid_temp_password"
	}
}
