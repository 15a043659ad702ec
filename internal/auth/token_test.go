package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/auth"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
)

const testSecret = "test-secret-32-characters-long-for-testing"

func testAccount() *models.Account {
	return &models.Account{
		ID:    "acc1",
		Email: "user@example.com",
		Role:  "user",
	}
}

func TestIssuePair_RoundTrip(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, 15*time.Minute, 7*24*time.Hour)

	pair, err := tm.IssuePair(testAccount())
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEmpty(t, pair.IDToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	access, err := tm.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "access", access.Type)
	assert.Equal(t, "acc1", access.UserID)
	assert.Equal(t, "user@example.com", access.Email)
	assert.Equal(t, "user", access.Role)

	refresh, err := tm.ValidateToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", refresh.Type)

	id, err := tm.ValidateToken(pair.IDToken)
	require.NoError(t, err)
	assert.Equal(t, "id", id.Type)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, 15*time.Minute, 7*24*time.Hour)
	other := auth.NewTokenManager("another-secret-32-characters-long!!", 15*time.Minute, 7*24*time.Hour)

	pair, err := tm.IssuePair(testAccount())
	require.NoError(t, err)

	_, err = other.ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, -1*time.Minute, 7*24*time.Hour)

	pair, err := tm.IssuePair(testAccount())
	require.NoError(t, err)

	_, err = tm.ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, 15*time.Minute, 7*24*time.Hour)

	_, err := tm.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestIssuePair_UniqueTokenIDs(t *testing.T) {
	tm := auth.NewTokenManager(testSecret, 15*time.Minute, 7*24*time.Hour)

	first, err := tm.IssuePair(testAccount())
	require.NoError(t, err)
	second, err := tm.IssuePair(testAccount())
	require.NoError(t, err)

	a, err := tm.ValidateToken(first.AccessToken)
	require.NoError(t, err)
	b, err := tm.ValidateToken(second.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
