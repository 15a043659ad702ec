package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
)

func middlewareTestManager() *TokenManager {
	return NewTokenManager("test-secret-32-characters-long-for-testing", 15*time.Minute, 7*24*time.Hour)
}

func issueTestPair(t *testing.T, tm *TokenManager) *models.TokenPair {
	t.Helper()
	pair, err := tm.IssuePair(&models.Account{ID: "user-123", Email: "user@example.com", Role: "user"})
	if err != nil {
		t.Fatalf("failed to issue token pair: %v", err)
	}
	return pair
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	middleware := AuthMiddleware(middlewareTestManager())

	req := httptest.NewRequest("GET", "/auth/me", nil)
	w := httptest.NewRecorder()

	nextCalled := false
	middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
	if nextCalled {
		t.Errorf("expected next handler not to be called")
	}
}

func TestAuthMiddleware_InvalidHeaderFormat(t *testing.T) {
	middleware := AuthMiddleware(middlewareTestManager())

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	w := httptest.NewRecorder()

	nextCalled := false
	middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
	if nextCalled {
		t.Errorf("expected next handler not to be called")
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	middleware := AuthMiddleware(middlewareTestManager())

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	w := httptest.NewRecorder()

	nextCalled := false
	middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
	if nextCalled {
		t.Errorf("expected next handler not to be called")
	}
}

func TestAuthMiddleware_RejectsRefreshToken(t *testing.T) {
	tm := middlewareTestManager()
	middleware := AuthMiddleware(tm)
	pair := issueTestPair(t, tm)

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	w := httptest.NewRecorder()

	nextCalled := false
	middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401 for refresh token, got %d", w.Code)
	}
	if nextCalled {
		t.Errorf("expected next handler not to be called")
	}
}

func TestAuthMiddleware_ValidAccessToken(t *testing.T) {
	tm := middlewareTestManager()
	middleware := AuthMiddleware(tm)
	pair := issueTestPair(t, tm)

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()

	var captured *models.TokenClaims
	middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetUserFromContext(r)
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if captured == nil {
		t.Fatalf("expected claims in request context")
	}
	if captured.UserID != "user-123" {
		t.Errorf("expected UserID user-123, got %s", captured.UserID)
	}
	if captured.Email != "user@example.com" {
		t.Errorf("expected Email user@example.com, got %s", captured.Email)
	}
	if captured.Type != "access" {
		t.Errorf("expected token type access, got %s", captured.Type)
	}
}

func TestGetUserFromContext_NoClaims(t *testing.T) {
	req := httptest.NewRequest("GET", "/auth/me", nil)
	if claims := GetUserFromContext(req); claims != nil {
		t.Errorf("expected nil claims for request without auth context, got %+v", claims)
	}
}
