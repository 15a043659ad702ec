package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/store"
)

// newTestStore spins up a miniredis instance wrapped in a Store.
func newTestStore(t *testing.T) (*store.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return store.NewWithClient(client, "auth", slog.Default()), mr
}

// NewTestAccount builds an active, verified account with a known password hash.
func NewTestAccount(id, email, passwordHash string) *models.Account {
	now := time.Now()
	return &models.Account{
		ID:            id,
		Email:         email,
		PasswordHash:  passwordHash,
		Name:          "Test User",
		Active:        true,
		EmailVerified: true,
		Role:          "user",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	GetByEmailFunc           func(ctx context.Context, email string) (*models.Account, error)
	GetByIDFunc              func(ctx context.Context, id string) (*models.Account, error)
	CreateFunc               func(ctx context.Context, account *models.Account) (*models.Account, error)
	UpdateLastLoginFunc      func(ctx context.Context, id string, at time.Time) error
	StoreTempPasswordFunc    func(ctx context.Context, id, hash string, expiresAt time.Time) error
	MarkTempPasswordUsedFunc func(ctx context.Context, id string) error
	EmailExistsFunc          func(ctx context.Context, email string) (bool, error)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, id, at)
	}
	return nil
}

func (m *MockAccountRepository) StoreTempPassword(ctx context.Context, id, hash string, expiresAt time.Time) error {
	if m.StoreTempPasswordFunc != nil {
		return m.StoreTempPasswordFunc(ctx, id, hash, expiresAt)
	}
	return nil
}

func (m *MockAccountRepository) MarkTempPasswordUsed(ctx context.Context, id string) error {
	if m.MarkTempPasswordUsedFunc != nil {
		return m.MarkTempPasswordUsedFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.EmailExistsFunc != nil {
		return m.EmailExistsFunc(ctx, email)
	}
	return false, nil
}

// MockLoginHistoryRepository implements LoginHistoryRepository for testing
type MockLoginHistoryRepository struct {
	RecordFunc func(ctx context.Context, entry *models.LoginHistoryEntry) error
	Entries    []*models.LoginHistoryEntry
}

func (m *MockLoginHistoryRepository) Record(ctx context.Context, entry *models.LoginHistoryEntry) error {
	m.Entries = append(m.Entries, entry)
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, entry)
	}
	return nil
}

// MockEmailService implements EmailService for testing. Dispatches run in
// goroutines at the call sites, so captured secrets are delivered over
// buffered channels the test can block on.
type MockEmailService struct {
	OTPCodes      chan string
	MagicLinks    chan string
	TempPasswords chan string
	Welcomes      chan string
}

func NewMockEmailService() *MockEmailService {
	return &MockEmailService{
		OTPCodes:      make(chan string, 8),
		MagicLinks:    make(chan string, 8),
		TempPasswords: make(chan string, 8),
		Welcomes:      make(chan string, 8),
	}
}

func (m *MockEmailService) SendOTPEmail(ctx context.Context, email, code string, expiresIn time.Duration, purpose, locale string) error {
	m.OTPCodes <- code
	return nil
}

func (m *MockEmailService) SendMagicLinkEmail(ctx context.Context, email, link string, expiresIn time.Duration, locale string) error {
	m.MagicLinks <- link
	return nil
}

func (m *MockEmailService) SendTempPasswordEmail(ctx context.Context, email, tempPassword string, expiresIn time.Duration, locale string) error {
	m.TempPasswords <- tempPassword
	return nil
}

func (m *MockEmailService) SendWelcomeEmail(ctx context.Context, email, name, locale string) error {
	m.Welcomes <- name
	return nil
}

// receiveSecret waits for an email dispatch goroutine to deliver its payload.
func receiveSecret(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for email dispatch")
		return ""
	}
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	IssuePairFunc     func(account *models.Account) (*models.TokenPair, error)
	ValidateTokenFunc func(tokenString string) (*models.TokenClaims, error)
}

func (m *MockTokenIssuer) IssuePair(account *models.Account) (*models.TokenPair, error) {
	if m.IssuePairFunc != nil {
		return m.IssuePairFunc(account)
	}
	return &models.TokenPair{
		AccessToken:  "access-" + account.ID,
		RefreshToken: "refresh-" + account.ID,
		IDToken:      "id-" + account.ID,
		ExpiresIn:    900,
	}, nil
}

func (m *MockTokenIssuer) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	return nil, models.ErrUnauthorized
}
