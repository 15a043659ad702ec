package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
)

func testOTPConfig(namespace string) OTPConfig {
	return OTPConfig{
		Namespace:         namespace,
		CodeLength:        6,
		Expiry:            10 * time.Minute,
		Cooldown:          60 * time.Second,
		MaxResends:        3,
		ResendWindow:      1 * time.Hour,
		MaxFailedAttempts: 3,
		LockoutDuration:   15 * time.Minute,
	}
}

func TestOTPManager_SendAndVerify(t *testing.T) {
	st, _ := newTestStore(t)
	email := NewMockEmailService()
	m := NewOTPManager(st, testOTPConfig("login"), email, slog.Default())
	ctx := context.Background()

	result, err := m.Send(ctx, "user@example.com", "en")
	require.NoError(t, err)
	assert.Equal(t, int64(600), result.ExpiresIn)
	assert.Equal(t, int64(60), result.CooldownSeconds)

	code := receiveSecret(t, email.OTPCodes)
	assert.Len(t, code, 6)

	err = m.Verify(ctx, "user@example.com", code)
	assert.NoError(t, err)
}

func TestOTPManager_VerifyIsSingleUse(t *testing.T) {
	st, _ := newTestStore(t)
	email := NewMockEmailService()
	m := NewOTPManager(st, testOTPConfig("login"), email, slog.Default())
	ctx := context.Background()

	_, err := m.Send(ctx, "user@example.com", "en")
	require.NoError(t, err)
	code := receiveSecret(t, email.OTPCodes)

	require.NoError(t, m.Verify(ctx, "user@example.com", code))

	// The code was consumed; replaying it finds nothing.
	err = m.Verify(ctx, "user@example.com", code)
	var invalid *models.InvalidCredentialError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, -1, invalid.RemainingAttempts)
}

func TestOTPManager_SendDuringCooldown(t *testing.T) {
	st, mr := newTestStore(t)
	email := NewMockEmailService()
	m := NewOTPManager(st, testOTPConfig("login"), email, slog.Default())
	ctx := context.Background()

	_, err := m.Send(ctx, "user@example.com", "en")
	require.NoError(t, err)
	receiveSecret(t, email.OTPCodes)

	_, err = m.Send(ctx, "user@example.com", "en")
	var limited *models.RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, "cooldown", limited.Reason)
	assert.Greater(t, limited.RetryAfterSeconds, int64(0))

	// After the cooldown lapses a resend goes through.
	mr.FastForward(61 * time.Second)
	_, err = m.Send(ctx, "user@example.com", "en")
	assert.NoError(t, err)
	receiveSecret(t, email.OTPCodes)
}

func TestOTPManager_ResendOverwritesPriorCode(t *testing.T) {
	st, mr := newTestStore(t)
	email := NewMockEmailService()
	m := NewOTPManager(st, testOTPConfig("login"), email, slog.Default())
	ctx := context.Background()

	_, err := m.Send(ctx, "user@example.com", "en")
	require.NoError(t, err)
	first := receiveSecret(t, email.OTPCodes)

	mr.FastForward(61 * time.Second)
	_, err = m.Send(ctx, "user@example.com", "en")
	require.NoError(t, err)
	second := receiveSecret(t, email.OTPCodes)

	if first == second {
		t.Skip("generated codes collided")
	}

	var invalid *models.InvalidCredentialError
	err = m.Verify(ctx, "user@example.com", first)
	require.ErrorAs(t, err, &invalid)

	assert.NoError(t, m.Verify(ctx, "user@example.com", second))
}

func TestOTPManager_ResendLimit(t *testing.T) {
	st, mr := newTestStore(t)
	email := NewMockEmailService()
	m := NewOTPManager(st, testOTPConfig("login"), email, slog.Default())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := m.Send(ctx, "user@example.com", "en")
		require.NoError(t, err)
		receiveSecret(t, email.OTPCodes)
		mr.FastForward(61 * time.Second)
	}

	_, err := m.Send(ctx, "user@example.com", "en")
	var limited *models.RateLimitedError
	require.ErrorAs(t, err, &limited)
	assert.Equal(t, "resend_limit", limited.Reason)
}

func TestOTPManager_WrongCodeCountsDown(t *testing.T) {
	st, _ := newTestStore(t)
	email := NewMockEmailService()
	m := NewOTPManager(st, testOTPConfig("login"), email, slog.Default())
	ctx := context.Background()

	_, err := m.Send(ctx, "user@example.com", "en")
	require.NoError(t, err)
	code := receiveSecret(t, email.OTPCodes)

	var invalid *models.InvalidCredentialError
	err = m.Verify(ctx, "user@example.com", "000000")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 2, invalid.RemainingAttempts)

	err = m.Verify(ctx, "user@example.com", "000000")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.RemainingAttempts)

	// A correct code still works until the maximum is reached.
	assert.NoError(t, m.Verify(ctx, "user@example.com", code))
}

func TestOTPManager_LockoutAfterMaxFailures(t *testing.T) {
	st, mr := newTestStore(t)
	email := NewMockEmailService()
	m := NewOTPManager(st, testOTPConfig("login"), email, slog.Default())
	ctx := context.Background()

	_, err := m.Send(ctx, "user@example.com", "en")
	require.NoError(t, err)
	code := receiveSecret(t, email.OTPCodes)

	var invalid *models.InvalidCredentialError
	require.ErrorAs(t, m.Verify(ctx, "user@example.com", "000000"), &invalid)
	require.ErrorAs(t, m.Verify(ctx, "user@example.com", "000000"), &invalid)

	var locked *models.OTPLockedError
	require.ErrorAs(t, m.Verify(ctx, "user@example.com", "000000"), &locked)

	// Locked even with the correct code; the code itself was torn down.
	require.ErrorAs(t, m.Verify(ctx, "user@example.com", code), &locked)

	// The lock is the failed counter's TTL. After it lapses the account can
	// request a fresh code.
	mr.FastForward(16 * time.Minute)
	_, err = m.Send(ctx, "user@example.com", "en")
	require.NoError(t, err)
	fresh := receiveSecret(t, email.OTPCodes)
	assert.NoError(t, m.Verify(ctx, "user@example.com", fresh))
}

func TestOTPManager_NamespacesAreIndependent(t *testing.T) {
	st, _ := newTestStore(t)
	email := NewMockEmailService()
	signup := NewOTPManager(st, testOTPConfig("signup"), email, slog.Default())
	login := NewOTPManager(st, testOTPConfig("login"), email, slog.Default())
	ctx := context.Background()

	_, err := signup.Send(ctx, "user@example.com", "en")
	require.NoError(t, err)
	signupCode := receiveSecret(t, email.OTPCodes)

	// The signup send does not trip the login namespace's cooldown.
	_, err = login.Send(ctx, "user@example.com", "en")
	require.NoError(t, err)
	loginCode := receiveSecret(t, email.OTPCodes)

	assert.NoError(t, signup.Verify(ctx, "user@example.com", signupCode))
	assert.NoError(t, login.Verify(ctx, "user@example.com", loginCode))
}

func TestOTPManager_ExpiredCode(t *testing.T) {
	st, mr := newTestStore(t)
	email := NewMockEmailService()
	m := NewOTPManager(st, testOTPConfig("login"), email, slog.Default())
	ctx := context.Background()

	_, err := m.Send(ctx, "user@example.com", "en")
	require.NoError(t, err)
	code := receiveSecret(t, email.OTPCodes)

	mr.FastForward(11 * time.Minute)

	var invalid *models.InvalidCredentialError
	err = m.Verify(ctx, "user@example.com", code)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, -1, invalid.RemainingAttempts)
}

func TestOTPManager_StoreDown(t *testing.T) {
	st, mr := newTestStore(t)
	email := NewMockEmailService()
	m := NewOTPManager(st, testOTPConfig("login"), email, slog.Default())
	ctx := context.Background()

	mr.Close()

	// Send cannot store the hash, so it fails hard.
	_, err := m.Send(ctx, "user@example.com", "en")
	assert.ErrorIs(t, err, models.ErrInternalServer)

	// Verify cannot read the hash either.
	err = m.Verify(ctx, "user@example.com", "123456")
	assert.True(t, errors.Is(err, models.ErrInternalServer))
}
