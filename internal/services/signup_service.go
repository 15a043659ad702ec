package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	pkgauth "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/auth"
)

// SignupService drives the multi-step signup: OTP send/verify, the
// single-use session bridging verification to profile completion, and
// account creation.
type SignupService struct {
	repo    AccountRepository
	otp     *OTPManager
	session *SignupSessionManager
	auth    *AuthService
	email   EmailService
	logger  *slog.Logger
}

// NewSignupService creates a new SignupService
func NewSignupService(
	repo AccountRepository,
	otp *OTPManager,
	session *SignupSessionManager,
	auth *AuthService,
	email EmailService,
	logger *slog.Logger,
) *SignupService {
	return &SignupService{
		repo:    repo,
		otp:     otp,
		session: session,
		auth:    auth,
		email:   email,
		logger:  logger,
	}
}

// SignupVerifyResult carries the session token issued after OTP verification.
type SignupVerifyResult struct {
	SessionToken string `json:"session_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// CompleteSignupParams collects the profile data submitted with the session
// token at the final step.
type CompleteSignupParams struct {
	Email        string
	SessionToken string
	Password     string
	Name         string
	Meta         RequestMeta
}

// SendOTP starts a signup by dispatching a verification code. An already
// registered email is rejected with Conflict before anything is stored.
func (s *SignupService) SendOTP(ctx context.Context, email, locale string) (*OTPSendResult, error) {
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		s.logger.Error("failed to check email existence", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if exists {
		s.logger.Info("signup otp rejected: email already registered")
		return nil, models.ErrConflict
	}

	return s.otp.Send(ctx, email, locale)
}

// VerifyOTP consumes the signup code and issues the single-use session token
// required to complete profile creation.
func (s *SignupService) VerifyOTP(ctx context.Context, email, code string) (*SignupVerifyResult, error) {
	if err := s.otp.Verify(ctx, email, code); err != nil {
		return nil, err
	}

	token, err := s.session.Issue(ctx, email)
	if err != nil {
		return nil, err
	}

	return &SignupVerifyResult{
		SessionToken: token,
		ExpiresIn:    int64(s.session.config.Expiry.Seconds()),
	}, nil
}

// Complete verifies the session, creates the account and tears the session
// down. The verify -> create -> clear sequence is one logical unit; a replay
// after Clear fails the session check.
func (s *SignupService) Complete(ctx context.Context, params CompleteSignupParams) (*models.TokenPair, error) {
	ok, err := s.session.Verify(ctx, params.Email, params.SessionToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrSessionInvalid
	}

	if err := pkgauth.ValidatePassword(params.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error())
	}

	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, models.ErrBadRequest
	}

	// Double-check: the email could have been registered between OTP
	// verification and completion.
	exists, err := s.repo.EmailExists(ctx, params.Email)
	if err != nil {
		s.logger.Error("failed to check email existence", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if exists {
		s.session.Clear(ctx, params.Email)
		return nil, models.ErrConflict
	}

	hash, err := pkgauth.HashPassword(params.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	account, err := s.repo.Create(ctx, &models.Account{
		Email:        params.Email,
		PasswordHash: hash,
		Name:         name,
		Active:       true,
		// The OTP that opened this session already proved control of the
		// address.
		EmailVerified: true,
		Role:          "user",
	})
	if err != nil {
		s.logger.Error("failed to create account", slog.Any("error", err))
		if errors.Is(err, models.ErrConflict) {
			s.session.Clear(ctx, params.Email)
			return nil, models.ErrConflict
		}
		return nil, models.ErrInternalServer
	}

	s.session.Clear(ctx, params.Email)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.email.SendWelcomeEmail(ctx, account.Email, account.Name, params.Meta.Locale); err != nil {
			s.logger.Error("failed to dispatch welcome email", slog.Any("error", err))
		}
	}()

	s.logger.Info("account registered", slog.String("account_id", account.ID))
	return s.auth.CompleteLogin(ctx, account, models.LoginMethodPassword, params.Meta)
}
