// Package i18n provides the translation capability handed into handlers and
// notification templates. Security managers never format user-facing text
// themselves; they surface typed errors and the edge renders them through a
// Translator.
package i18n

import (
	"fmt"
	"strings"
)

const DefaultLocale = "en"

// Translator resolves a message key plus parameters for one locale.
type Translator struct {
	locale string
}

func New(locale string) *Translator {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if _, ok := messages[locale]; !ok {
		locale = DefaultLocale
	}
	return &Translator{locale: locale}
}

func (t *Translator) Locale() string {
	return t.locale
}

// T resolves key with {name} placeholders replaced by params. Unknown keys
// fall back to the English table, then to the key itself.
func (t *Translator) T(key string, params map[string]any) string {
	msg, ok := messages[t.locale][key]
	if !ok {
		msg, ok = messages[DefaultLocale][key]
	}
	if !ok {
		return key
	}
	for name, value := range params {
		msg = strings.ReplaceAll(msg, "{"+name+"}", fmt.Sprintf("%v", value))
	}
	return msg
}

var messages = map[string]map[string]string{
	"en": {
		"auth.invalid_credentials":    "Email or password is incorrect",
		"auth.account_locked":         "Too many failed attempts. Try again in {seconds} seconds",
		"auth.account_inactive":       "This account has been deactivated",
		"auth.email_not_verified":     "Please verify your email address first",
		"otp.sent":                    "A verification code has been sent to your email",
		"otp.invalid":                 "Invalid code. {remaining} attempts remaining",
		"otp.locked":                  "Too many incorrect codes. Request a new one later",
		"otp.cooldown":                "Please wait {seconds} seconds before requesting a new code",
		"otp.resend_limit":            "Code request limit reached. Try again later",
		"magic_link.sent":             "A login link has been sent to your email",
		"magic_link.invalid":          "This link is invalid or has expired",
		"signup.session_invalid":      "Verification session expired. Please verify your email again",
		"signup.email_taken":          "This email is already registered",
		"unlock.requested":            "If the account exists and is locked, instructions have been sent",
		"unlock.not_locked":           "This account is not locked",
		"unlock.temp_password_used":   "This temporary password has already been used",
		"unlock.temp_password_expired": "This temporary password has expired",
		"unlock.rate_limited":         "Too many unlock requests. Try again later",
	},
	"vi": {
		"auth.invalid_credentials":    "Email hoặc mật khẩu không đúng",
		"auth.account_locked":         "Quá nhiều lần thử thất bại. Thử lại sau {seconds} giây",
		"auth.account_inactive":       "Tài khoản này đã bị vô hiệu hóa",
		"auth.email_not_verified":     "Vui lòng xác minh địa chỉ email trước",
		"otp.sent":                    "Mã xác minh đã được gửi đến email của bạn",
		"otp.invalid":                 "Mã không đúng. Còn {remaining} lần thử",
		"otp.locked":                  "Nhập sai mã quá nhiều lần. Vui lòng yêu cầu mã mới sau",
		"otp.cooldown":                "Vui lòng đợi {seconds} giây trước khi yêu cầu mã mới",
		"otp.resend_limit":            "Đã đạt giới hạn yêu cầu mã. Thử lại sau",
		"magic_link.sent":             "Liên kết đăng nhập đã được gửi đến email của bạn",
		"magic_link.invalid":          "Liên kết không hợp lệ hoặc đã hết hạn",
		"signup.session_invalid":      "Phiên xác minh đã hết hạn. Vui lòng xác minh email lại",
		"signup.email_taken":          "Email này đã được đăng ký",
		"unlock.requested":            "Nếu tài khoản tồn tại và đang bị khóa, hướng dẫn đã được gửi",
		"unlock.not_locked":           "Tài khoản này không bị khóa",
		"unlock.temp_password_used":   "Mật khẩu tạm thời này đã được sử dụng",
		"unlock.temp_password_expired": "Mật khẩu tạm thời này đã hết hạn",
		"unlock.rate_limited":         "Quá nhiều yêu cầu mở khóa. Thử lại sau",
	},
}
