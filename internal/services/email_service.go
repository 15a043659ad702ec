package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/i18n"
	pkglogger "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/logger"
)

// EmailService defines the interface for the notification collaborator.
// Delivery is fire-and-forget at every call site: failures are logged and
// never block or fail the calling request.
type EmailService interface {
	SendOTPEmail(ctx context.Context, email, code string, expiresIn time.Duration, purpose, locale string) error
	SendMagicLinkEmail(ctx context.Context, email, link string, expiresIn time.Duration, locale string) error
	SendTempPasswordEmail(ctx context.Context, email, tempPassword string, expiresIn time.Duration, locale string) error
	SendWelcomeEmail(ctx context.Context, email, name, locale string) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	linkBaseURL string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, linkBaseURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		linkBaseURL: linkBaseURL,
		logger:      logger,
	}, nil
}

// MagicLinkURL builds the URL embedded in a magic-link email.
func (s *AWSSESEmailService) MagicLinkURL(email, token string) string {
	return fmt.Sprintf("%s/auth/magic-link/verify?email=%s&token=%s", s.linkBaseURL, email, token)
}

// SendOTPEmail delivers a one-time passcode. purpose is "signup" or "login"
// and only changes the wording, not the lifecycle.
func (s *AWSSESEmailService) SendOTPEmail(ctx context.Context, email, code string, expiresIn time.Duration, purpose, locale string) error {
	tr := i18n.New(locale)
	subject := "Your verification code"
	if tr.Locale() == "vi" {
		subject = "Mã xác minh của bạn"
	}

	minutes := int(expiresIn.Minutes())
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>%s</h1>
    <p>Use the following code to continue your %s:</p>
    <p style="font-size: 32px; letter-spacing: 8px; font-weight: bold;">%s</p>
    <p>This code expires in %d minutes. If you did not request it, you can ignore this email.</p>
  </div>
</body>
</html>
`, subject, purpose, code, minutes)

	textBody := fmt.Sprintf("%s\n\nYour %s code: %s\n\nThis code expires in %d minutes. If you did not request it, you can ignore this email.\n", subject, purpose, code, minutes)

	return s.send(ctx, email, subject, htmlBody, textBody)
}

// SendMagicLinkEmail delivers a single-use login link.
func (s *AWSSESEmailService) SendMagicLinkEmail(ctx context.Context, email, link string, expiresIn time.Duration, locale string) error {
	tr := i18n.New(locale)
	subject := "Your login link"
	if tr.Locale() == "vi" {
		subject = "Liên kết đăng nhập của bạn"
	}

	minutes := int(expiresIn.Minutes())
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>%s</h1>
    <p>Click the link below to sign in. The link can be used once and expires in %d minutes.</p>
    <p><a href="%s" style="display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Sign in</a></p>
    <p>Or copy and paste this link in your browser:<br><code>%s</code></p>
    <p>If you did not request this link, you can ignore this email.</p>
  </div>
</body>
</html>
`, subject, minutes, link, link)

	textBody := fmt.Sprintf("%s\n\nSign in with this single-use link (expires in %d minutes):\n%s\n\nIf you did not request this link, you can ignore this email.\n", subject, minutes, link)

	return s.send(ctx, email, subject, htmlBody, textBody)
}

// SendTempPasswordEmail delivers the one-time unlock credential.
func (s *AWSSESEmailService) SendTempPasswordEmail(ctx context.Context, email, tempPassword string, expiresIn time.Duration, locale string) error {
	tr := i18n.New(locale)
	subject := "Unlock your account"
	if tr.Locale() == "vi" {
		subject = "Mở khóa tài khoản của bạn"
	}

	minutes := int(expiresIn.Minutes())
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>%s</h1>
    <p>Your account was locked after repeated failed sign-in attempts. Use this temporary password to unlock it:</p>
    <p style="font-size: 24px; font-weight: bold;"><code>%s</code></p>
    <p>It can be used once and expires in %d minutes.</p>
    <p>If you did not request this, we recommend changing your password.</p>
  </div>
</body>
</html>
`, subject, tempPassword, minutes)

	textBody := fmt.Sprintf("%s\n\nTemporary password (single use, expires in %d minutes): %s\n\nIf you did not request this, we recommend changing your password.\n", subject, minutes, tempPassword)

	return s.send(ctx, email, subject, htmlBody, textBody)
}

// SendWelcomeEmail greets a newly registered account.
func (s *AWSSESEmailService) SendWelcomeEmail(ctx context.Context, email, name, locale string) error {
	tr := i18n.New(locale)
	subject := "Welcome!"
	if tr.Locale() == "vi" {
		subject = "Chào mừng!"
	}

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>%s</h1>
    <p>Hi %s, your account is ready. You can sign in with your email and password, a one-time code, or a login link.</p>
  </div>
</body>
</html>
`, subject, name)

	textBody := fmt.Sprintf("%s\n\nHi %s, your account is ready. You can sign in with your email and password, a one-time code, or a login link.\n", subject, name)

	return s.send(ctx, email, subject, htmlBody, textBody)
}

func (s *AWSSESEmailService) send(ctx context.Context, email, subject, htmlBody, textBody string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send email via SES",
			slog.String("to", pkglogger.SanitizedEmail(email)),
			slog.String("subject", subject),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("to", pkglogger.SanitizedEmail(email)),
		slog.String("subject", subject),
		slog.String("message_id", *result.MessageId))

	return nil
}
