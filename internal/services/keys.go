package services

// TTL store key builders. Keys are built from the submitted email string
// as-is; the HTTP layer lowercases and trims input before it reaches the
// managers, so the same account cannot dodge its own counters via case
// variants.

func failedAttemptsKey(email string) string {
	return "failed-attempts:" + email
}

func lockoutKey(email string) string {
	return "lockout:" + email
}

func otpKey(namespace, email string) string {
	return "otp:" + namespace + ":" + email
}

func otpCooldownKey(namespace, email string) string {
	return "otp-cooldown:" + namespace + ":" + email
}

func otpFailedKey(namespace, email string) string {
	return "otp-failed:" + namespace + ":" + email
}

func otpResendKey(namespace, email string) string {
	return "otp-resend:" + namespace + ":" + email
}

func magicLinkKey(email string) string {
	return "magic-link:" + email
}

func magicLinkCooldownKey(email string) string {
	return "magic-link-cooldown:" + email
}

func signupSessionKey(email string) string {
	return "session:" + email
}

func unlockCooldownKey(email string) string {
	return "unlock-cooldown:" + email
}

func unlockRateKey(email string) string {
	return "unlock-rate:" + email
}

// cooldownSentinel is the value written to pure-existence keys.
const cooldownSentinel = "1"
