package handlers

import (
	"errors"
	"net/http"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/i18n"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	pkghttp "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/http"
)

// writeServiceError maps typed service errors to HTTP responses. Messages are
// localized; account-state errors for login collapse into a generic
// unauthorized response to prevent user enumeration.
func writeServiceError(w http.ResponseWriter, tr *i18n.Translator, err error) {
	var rateLimited *models.RateLimitedError
	var accountLocked *models.AccountLockedError
	var invalidCredential *models.InvalidCredentialError
	var otpLocked *models.OTPLockedError

	switch {
	case errors.As(err, &rateLimited):
		pkghttp.WriteRateLimited(w, rateLimited.RetryAfterSeconds, rateLimitedMessage(tr, rateLimited))

	case errors.As(err, &accountLocked):
		pkghttp.WriteRateLimited(w, accountLocked.RemainingSeconds, tr.T("auth.account_locked", map[string]any{
			"seconds": accountLocked.RemainingSeconds,
		}))

	case errors.As(err, &otpLocked):
		pkghttp.WriteTooManyRequests(w, tr.T("otp.locked", nil))

	case errors.As(err, &invalidCredential):
		if invalidCredential.RemainingAttempts >= 0 {
			pkghttp.WriteUnauthorized(w, tr.T("otp.invalid", map[string]any{
				"remaining": invalidCredential.RemainingAttempts,
			}))
			return
		}
		pkghttp.WriteUnauthorized(w, tr.T("auth.invalid_credentials", nil))

	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, tr.T("signup.email_taken", nil))

	case errors.Is(err, models.ErrSessionInvalid):
		pkghttp.WriteUnauthorized(w, tr.T("signup.session_invalid", nil))

	case errors.Is(err, models.ErrAccountNotLocked):
		pkghttp.WriteBadRequest(w, tr.T("unlock.not_locked", nil))

	case errors.Is(err, models.ErrTempPasswordUsed):
		pkghttp.WriteUnauthorized(w, tr.T("unlock.temp_password_used", nil))

	case errors.Is(err, models.ErrTempPasswordExpired):
		pkghttp.WriteUnauthorized(w, tr.T("unlock.temp_password_expired", nil))

	case errors.Is(err, models.ErrTempPasswordMissing):
		pkghttp.WriteUnauthorized(w, tr.T("auth.invalid_credentials", nil))

	case errors.Is(err, models.ErrAccountInactive),
		errors.Is(err, models.ErrEmailNotVerified),
		errors.Is(err, models.ErrUnauthorized):
		// Generic response for account-state issues to prevent enumeration
		pkghttp.WriteUnauthorized(w, tr.T("auth.invalid_credentials", nil))

	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, err.Error())

	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

func rateLimitedMessage(tr *i18n.Translator, err *models.RateLimitedError) string {
	switch err.Reason {
	case "cooldown":
		return tr.T("otp.cooldown", map[string]any{"seconds": err.RetryAfterSeconds})
	case "resend_limit":
		return tr.T("otp.resend_limit", nil)
	case "request_limit":
		return tr.T("unlock.rate_limited", nil)
	default:
		return tr.T("otp.resend_limit", nil)
	}
}
