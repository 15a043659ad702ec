package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/auth"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/services"
	pkghttp "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds token claims to the request context for testing
// authenticated endpoints
func WithAuthContext(req *http.Request, userID, email string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Type:   "access",
	}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc           func(ctx context.Context, email, password string, meta services.RequestMeta) (*models.TokenPair, error)
	SendLoginOTPFunc    func(ctx context.Context, email string, meta services.RequestMeta) (*services.OTPSendResult, error)
	VerifyLoginOTPFunc  func(ctx context.Context, email, code string, meta services.RequestMeta) (*models.TokenPair, error)
	SendMagicLinkFunc   func(ctx context.Context, email string, meta services.RequestMeta) (*services.MagicLinkSendResult, error)
	VerifyMagicLinkFunc func(ctx context.Context, email, token string, meta services.RequestMeta) (*models.TokenPair, error)
	RefreshTokenFunc    func(ctx context.Context, refreshToken string) (*models.TokenPair, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, meta services.RequestMeta) (*models.TokenPair, error) {
	if m.LoginFunc == nil {
		return nil, &models.InvalidCredentialError{RemainingAttempts: -1}
	}
	return m.LoginFunc(ctx, email, password, meta)
}

func (m *MockAuthService) SendLoginOTP(ctx context.Context, email string, meta services.RequestMeta) (*services.OTPSendResult, error) {
	if m.SendLoginOTPFunc == nil {
		return &services.OTPSendResult{ExpiresIn: 600, CooldownSeconds: 60}, nil
	}
	return m.SendLoginOTPFunc(ctx, email, meta)
}

func (m *MockAuthService) VerifyLoginOTP(ctx context.Context, email, code string, meta services.RequestMeta) (*models.TokenPair, error) {
	if m.VerifyLoginOTPFunc == nil {
		return nil, &models.InvalidCredentialError{RemainingAttempts: -1}
	}
	return m.VerifyLoginOTPFunc(ctx, email, code, meta)
}

func (m *MockAuthService) SendMagicLink(ctx context.Context, email string, meta services.RequestMeta) (*services.MagicLinkSendResult, error) {
	if m.SendMagicLinkFunc == nil {
		return &services.MagicLinkSendResult{ExpiresIn: 900, CooldownSeconds: 60}, nil
	}
	return m.SendMagicLinkFunc(ctx, email, meta)
}

func (m *MockAuthService) VerifyMagicLink(ctx context.Context, email, token string, meta services.RequestMeta) (*models.TokenPair, error) {
	if m.VerifyMagicLinkFunc == nil {
		return nil, &models.InvalidCredentialError{RemainingAttempts: -1}
	}
	return m.VerifyMagicLinkFunc(ctx, email, token, meta)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	if m.RefreshTokenFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.RefreshTokenFunc(ctx, refreshToken)
}

// MockSignupService implements SignupServiceInterface for testing
type MockSignupService struct {
	SendOTPFunc   func(ctx context.Context, email, locale string) (*services.OTPSendResult, error)
	VerifyOTPFunc func(ctx context.Context, email, code string) (*services.SignupVerifyResult, error)
	CompleteFunc  func(ctx context.Context, params services.CompleteSignupParams) (*models.TokenPair, error)
}

func (m *MockSignupService) SendOTP(ctx context.Context, email, locale string) (*services.OTPSendResult, error) {
	if m.SendOTPFunc == nil {
		return &services.OTPSendResult{ExpiresIn: 600, CooldownSeconds: 60}, nil
	}
	return m.SendOTPFunc(ctx, email, locale)
}

func (m *MockSignupService) VerifyOTP(ctx context.Context, email, code string) (*services.SignupVerifyResult, error) {
	if m.VerifyOTPFunc == nil {
		return nil, &models.InvalidCredentialError{RemainingAttempts: -1}
	}
	return m.VerifyOTPFunc(ctx, email, code)
}

func (m *MockSignupService) Complete(ctx context.Context, params services.CompleteSignupParams) (*models.TokenPair, error) {
	if m.CompleteFunc == nil {
		return nil, models.ErrSessionInvalid
	}
	return m.CompleteFunc(ctx, params)
}

// MockUnlockService implements UnlockServiceInterface for testing
type MockUnlockService struct {
	RequestFunc func(ctx context.Context, email string, meta services.RequestMeta) error
	VerifyFunc  func(ctx context.Context, email, tempPassword string, meta services.RequestMeta) (*models.TokenPair, error)
}

func (m *MockUnlockService) Request(ctx context.Context, email string, meta services.RequestMeta) error {
	if m.RequestFunc == nil {
		return nil
	}
	return m.RequestFunc(ctx, email, meta)
}

func (m *MockUnlockService) Verify(ctx context.Context, email, tempPassword string, meta services.RequestMeta) (*models.TokenPair, error) {
	if m.VerifyFunc == nil {
		return nil, models.ErrTempPasswordMissing
	}
	return m.VerifyFunc(ctx, email, tempPassword, meta)
}
