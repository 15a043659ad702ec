package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/auth"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	pkgauth "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/auth"
	pkglogger "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/logger"
)

// TokenIssuer defines the interface for the signed-token collaborator.
type TokenIssuer interface {
	IssuePair(account *models.Account) (*models.TokenPair, error)
	ValidateToken(tokenString string) (*models.TokenClaims, error)
}

// RequestMeta carries the caller context recorded in the login history.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	Locale    string
}

// historyTTL bounds how long login-history rows are kept before the cleanup
// task removes them.
const historyTTL = 90 * 24 * time.Hour

// AuthService orchestrates password, OTP and magic-link login on top of the
// ephemeral security managers.
type AuthService struct {
	repo        AccountRepository
	history     LoginHistoryRepository
	tracker     *LockoutTracker
	loginOTP    *OTPManager
	magicLink   *MagicLinkManager
	tokens      TokenIssuer
	timing      *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repo AccountRepository,
	history LoginHistoryRepository,
	tracker *LockoutTracker,
	loginOTP *OTPManager,
	magicLink *MagicLinkManager,
	tokens TokenIssuer,
	timing *auth.TimingDelay,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		repo:        repo,
		history:     history,
		tracker:     tracker,
		loginOTP:    loginOTP,
		magicLink:   magicLink,
		tokens:      tokens,
		timing:      timing,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Login authenticates with email and password. A lockout in effect is
// reported before the password is even checked; a wrong password feeds the
// progressive lockout tracker.
func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (*models.TokenPair, error) {
	if email = strings.TrimSpace(email); email == "" {
		s.logger.Warn("login attempt with empty email")
		return nil, &models.InvalidCredentialError{RemainingAttempts: -1}
	}

	if status := s.tracker.CheckLockout(ctx, email); status.IsLocked {
		s.recordFailure(ctx, email, models.LoginMethodPassword, meta, "account_locked")
		return nil, &models.AccountLockedError{
			RemainingSeconds: status.RemainingSeconds,
			Attempts:         status.Attempts,
		}
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.recordFailure(ctx, email, models.LoginMethodPassword, meta, "invalid_credentials")
			// Unknown emails take as long as wrong passwords
			s.timing.Wait(false)
			return nil, &models.InvalidCredentialError{RemainingAttempts: -1}
		}
		s.logger.Error("failed to get account by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.validateAccountState(ctx, account, models.LoginMethodPassword, meta); err != nil {
		return nil, err
	}

	if err := pkgauth.ComparePassword(account.PasswordHash, password); err != nil {
		attempts, lockSeconds := s.tracker.TrackAttempt(ctx, email)
		s.logger.Info("login failed: invalid credentials")
		s.recordFailure(ctx, email, models.LoginMethodPassword, meta, "invalid_credentials")
		s.timing.Wait(false)

		if lockSeconds > 0 {
			return nil, &models.AccountLockedError{RemainingSeconds: lockSeconds, Attempts: attempts}
		}
		return nil, &models.InvalidCredentialError{RemainingAttempts: -1}
	}

	s.tracker.ResetAll(ctx, email)
	return s.CompleteLogin(ctx, account, models.LoginMethodPassword, meta)
}

// SendLoginOTP dispatches a login code. Unknown or unusable accounts return
// metadata as if the send happened, so the endpoint cannot enumerate
// accounts; nothing is stored and no email goes out.
func (s *AuthService) SendLoginOTP(ctx context.Context, email string, meta RequestMeta) (*OTPSendResult, error) {
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login otp requested for unknown email")
			return &OTPSendResult{
				ExpiresIn:       int64(s.loginOTP.config.Expiry.Seconds()),
				CooldownSeconds: int64(s.loginOTP.config.Cooldown.Seconds()),
			}, nil
		}
		s.logger.Error("failed to get account by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !account.Active || !account.EmailVerified {
		s.logger.Info("login otp requested for unusable account", slog.String("account_id", account.ID))
		return &OTPSendResult{
			ExpiresIn:       int64(s.loginOTP.config.Expiry.Seconds()),
			CooldownSeconds: int64(s.loginOTP.config.Cooldown.Seconds()),
		}, nil
	}

	return s.loginOTP.Send(ctx, email, meta.Locale)
}

// VerifyLoginOTP completes an OTP login.
func (s *AuthService) VerifyLoginOTP(ctx context.Context, email, code string, meta RequestMeta) (*models.TokenPair, error) {
	if err := s.loginOTP.Verify(ctx, email, code); err != nil {
		s.recordFailure(ctx, email, models.LoginMethodOTP, meta, "invalid_otp")
		return nil, err
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to get account after otp verify", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.validateAccountState(ctx, account, models.LoginMethodOTP, meta); err != nil {
		return nil, err
	}

	s.tracker.ResetAll(ctx, email)
	return s.CompleteLogin(ctx, account, models.LoginMethodOTP, meta)
}

// SendMagicLink dispatches a single-use login link with the same
// enumeration-safe behavior as SendLoginOTP.
func (s *AuthService) SendMagicLink(ctx context.Context, email string, meta RequestMeta) (*MagicLinkSendResult, error) {
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("magic link requested for unknown email")
			return &MagicLinkSendResult{
				ExpiresIn:       int64(s.magicLink.config.Expiry.Seconds()),
				CooldownSeconds: int64(s.magicLink.config.Cooldown.Seconds()),
			}, nil
		}
		s.logger.Error("failed to get account by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !account.Active || !account.EmailVerified {
		s.logger.Info("magic link requested for unusable account", slog.String("account_id", account.ID))
		return &MagicLinkSendResult{
			ExpiresIn:       int64(s.magicLink.config.Expiry.Seconds()),
			CooldownSeconds: int64(s.magicLink.config.Cooldown.Seconds()),
		}, nil
	}

	return s.magicLink.Send(ctx, email, meta.Locale)
}

// VerifyMagicLink completes a magic-link login.
func (s *AuthService) VerifyMagicLink(ctx context.Context, email, token string, meta RequestMeta) (*models.TokenPair, error) {
	if err := s.magicLink.Verify(ctx, email, token); err != nil {
		s.recordFailure(ctx, email, models.LoginMethodMagicLink, meta, "invalid_magic_link")
		return nil, err
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to get account after magic link verify", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.validateAccountState(ctx, account, models.LoginMethodMagicLink, meta); err != nil {
		return nil, err
	}

	s.tracker.ResetAll(ctx, email)
	return s.CompleteLogin(ctx, account, models.LoginMethodMagicLink, meta)
}

// RefreshToken exchanges a valid refresh token for a fresh pair.
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenString string) (*models.TokenPair, error) {
	if refreshTokenString = strings.TrimSpace(refreshTokenString); refreshTokenString == "" {
		return nil, models.ErrUnauthorized
	}

	claims, err := s.tokens.ValidateToken(refreshTokenString)
	if err != nil {
		s.logger.Info("refresh token validation failed", slog.Any("error", err))
		return nil, models.ErrUnauthorized
	}

	if claims.Type != "refresh" {
		s.logger.Warn("refresh attempt with non-refresh token", slog.String("user_id", claims.UserID))
		return nil, models.ErrUnauthorized
	}

	account, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get account for token refresh", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !account.Active {
		return nil, models.ErrUnauthorized
	}

	pair, err := s.tokens.IssuePair(account)
	if err != nil {
		s.logger.Error("failed to issue token pair", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("token refreshed", slog.String("account_id", account.ID))
	return pair, nil
}

// CompleteLogin is the single success path shared by password, OTP,
// magic-link and temporary-password login: issue tokens, stamp the last
// login, record history.
func (s *AuthService) CompleteLogin(ctx context.Context, account *models.Account, method string, meta RequestMeta) (*models.TokenPair, error) {
	pair, err := s.tokens.IssuePair(account)
	if err != nil {
		s.logger.Error("failed to issue token pair", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.repo.UpdateLastLogin(ctx, account.ID, time.Now()); err != nil {
		s.logger.Error("failed to update last login", slog.String("account_id", account.ID), slog.Any("error", err))
	}

	s.record(ctx, account.Email, method, meta, true, "")

	s.logger.Info("login succeeded",
		slog.String("account_id", account.ID),
		slog.String("method", method))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    account.ID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Success:   true,
	})

	return pair, nil
}

func (s *AuthService) validateAccountState(ctx context.Context, account *models.Account, method string, meta RequestMeta) error {
	if !account.Active {
		s.recordFailure(ctx, account.Email, method, meta, "account_inactive")
		return models.ErrAccountInactive
	}
	if !account.EmailVerified {
		s.recordFailure(ctx, account.Email, method, meta, "email_not_verified")
		return models.ErrEmailNotVerified
	}
	return nil
}

func (s *AuthService) recordFailure(ctx context.Context, email, method string, meta RequestMeta, reason string) {
	s.record(ctx, email, method, meta, false, reason)
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		FailureReason: reason,
		Success:       false,
	})
}

func (s *AuthService) record(ctx context.Context, email, method string, meta RequestMeta, success bool, reason string) {
	entry := &models.LoginHistoryEntry{
		Email:       email,
		Method:      method,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
		AttemptTime: time.Now(),
		Success:     success,
		ExpiresAt:   time.Now().Add(historyTTL),
	}
	if reason != "" {
		entry.FailureReason = &reason
	}

	if err := s.history.Record(ctx, entry); err != nil {
		s.logger.Error("failed to record login history", slog.Any("error", err))
	}
}
