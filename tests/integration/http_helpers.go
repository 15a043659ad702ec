package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/auth"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/database"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/handlers"
	middlewareCustom "github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/middleware"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/repositories"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/routes"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/services"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/store"
	pkghttp "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/http"
	pkglogger "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/logger"
)

// CapturingEmailService implements services.EmailService for integration
// tests. Dispatches happen in goroutines, so secrets are delivered over
// buffered channels the test can block on.
type CapturingEmailService struct {
	OTPCodes      chan string
	MagicLinks    chan string
	TempPasswords chan string
	Welcomes      chan string
}

func NewCapturingEmailService() *CapturingEmailService {
	return &CapturingEmailService{
		OTPCodes:      make(chan string, 16),
		MagicLinks:    make(chan string, 16),
		TempPasswords: make(chan string, 16),
		Welcomes:      make(chan string, 16),
	}
}

func (c *CapturingEmailService) SendOTPEmail(ctx context.Context, email, code string, expiresIn time.Duration, purpose, locale string) error {
	c.OTPCodes <- code
	return nil
}

func (c *CapturingEmailService) SendMagicLinkEmail(ctx context.Context, email, link string, expiresIn time.Duration, locale string) error {
	c.MagicLinks <- link
	return nil
}

func (c *CapturingEmailService) SendTempPasswordEmail(ctx context.Context, email, tempPassword string, expiresIn time.Duration, locale string) error {
	c.TempPasswords <- tempPassword
	return nil
}

func (c *CapturingEmailService) SendWelcomeEmail(ctx context.Context, email, name, locale string) error {
	c.Welcomes <- name
	return nil
}

// TestServer wraps httptest.Server with the full dependency graph wired the
// way cmd/api does it, swapping postgres for a testcontainer, redis for
// miniredis and SES for the capturing mock.
type TestServer struct {
	Server *httptest.Server
	DB     *database.DB
	Email  *CapturingEmailService
	Store  *store.Store

	redis  *miniredis.Miniredis
	reqSeq uint32
}

// NewTestServer initializes a complete HTTP server against the given database
func NewTestServer(db *database.DB) (*TestServer, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	mr, err := miniredis.Run()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ttlStore := store.NewWithClient(client, "auth", logger)

	accountRepo := repositories.NewAccountRepository(db)
	historyRepo := repositories.NewLoginHistoryRepository(db)

	tokenManager := auth.NewTokenManager(
		"test-secret-32-characters-long-for-testing",
		15*time.Minute,
		7*24*time.Hour,
	)
	auditLogger := pkglogger.NewAuditLogger(logger)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{})
	email := NewCapturingEmailService()

	lockoutTracker := services.NewLockoutTracker(ttlStore, services.LockoutConfig{
		ResetWindow: 30 * time.Minute,
	}, logger)

	otpConfig := services.OTPConfig{
		CodeLength:        6,
		Expiry:            10 * time.Minute,
		Cooldown:          60 * time.Second,
		MaxResends:        5,
		ResendWindow:      1 * time.Hour,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
	}
	signupOTPConfig := otpConfig
	signupOTPConfig.Namespace = "signup"
	loginOTPConfig := otpConfig
	loginOTPConfig.Namespace = "login"

	signupOTP := services.NewOTPManager(ttlStore, signupOTPConfig, email, logger)
	loginOTP := services.NewOTPManager(ttlStore, loginOTPConfig, email, logger)

	magicLink := services.NewMagicLinkManager(ttlStore, services.MagicLinkConfig{
		TokenBytes: 32,
		Expiry:     15 * time.Minute,
		Cooldown:   60 * time.Second,
	}, email, func(addr, token string) string {
		return "http://localhost:3000/auth/magic?token=" + token
	}, logger)

	signupSession := services.NewSignupSessionManager(ttlStore, services.SignupSessionConfig{
		TokenBytes: 32,
		Expiry:     10 * time.Minute,
	}, logger)

	unlockManager := services.NewUnlockManager(ttlStore, lockoutTracker, accountRepo, email, services.UnlockConfig{
		Cooldown:           60 * time.Second,
		MaxPerWindow:       3,
		RateWindow:         1 * time.Hour,
		TempPasswordLength: 16,
		TempPasswordTTL:    15 * time.Minute,
	}, logger)

	authService := services.NewAuthService(
		accountRepo, historyRepo, lockoutTracker, loginOTP, magicLink,
		tokenManager, timingDelay, logger, auditLogger,
	)
	signupService := services.NewSignupService(
		accountRepo, signupOTP, signupSession, authService, email, logger,
	)
	unlockService := services.NewUnlockService(unlockManager, authService, logger)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: []string{}}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	signupHandler := handlers.NewSignupHandler(signupService, ipConfig)
	unlockHandler := handlers.NewUnlockHandler(unlockService, ipConfig)
	accountHandler := handlers.NewAccountHandler(accountRepo, historyRepo)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: "test"}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, authHandler, signupHandler, unlockHandler, accountHandler, tokenManager)

	return &TestServer{
		Server: httptest.NewServer(r),
		DB:     db,
		Email:  email,
		Store:  ttlStore,
		redis:  mr,
	}, nil
}

// Close shuts down the test server and its ephemeral store
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
	if ts.Store != nil {
		ts.Store.Close()
	}
	if ts.redis != nil {
		ts.redis.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	// Rotate the client IP so the per-IP limiter stays out of the way; the
	// flows under test are keyed by email, not by address.
	seq := atomic.AddUint32(&ts.reqSeq, 1)
	req.Header.Set("X-Real-Ip", fmt.Sprintf("10.9.%d.%d", seq/250, seq%250+1))
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body interface{}) (*http.Response, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + accessToken,
	}
	return ts.Request(method, path, body, headers)
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// ExtractTokensFromResponse extracts access/refresh tokens from auth response
func ExtractTokensFromResponse(resp *http.Response) (accessToken, refreshToken string, err error) {
	defer resp.Body.Close()

	var authResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", "", err
	}

	if access, ok := authResp["access_token"].(string); ok {
		accessToken = access
	}
	if refresh, ok := authResp["refresh_token"].(string); ok {
		refreshToken = refresh
	}

	return
}

// GetErrorMessage extracts error message from error response
func GetErrorMessage(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	if msg, ok := errResp["message"].(string); ok {
		return msg, nil
	}
	return "", nil
}
