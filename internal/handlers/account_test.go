package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/handlers"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
)

type stubAccountReader struct {
	account *models.Account
}

func (s *stubAccountReader) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if s.account != nil && s.account.ID == id {
		return s.account, nil
	}
	return nil, models.ErrNotFound
}

type stubHistoryReader struct {
	entries []*models.LoginHistoryEntry
}

func (s *stubHistoryReader) ListByEmail(ctx context.Context, email string, limit int) ([]*models.LoginHistoryEntry, error) {
	return s.entries, nil
}

func TestMe_Success(t *testing.T) {
	account := &models.Account{
		ID:            "acc1",
		Email:         "user@example.com",
		Name:          "Test User",
		Role:          "user",
		EmailVerified: true,
		CreatedAt:     time.Now(),
	}
	handler := handlers.NewAccountHandler(&stubAccountReader{account: account}, &stubHistoryReader{})

	req := handlers.NewTestRequest(t, "GET", "/auth/me", nil)
	req = handlers.WithAuthContext(req, "acc1", "user@example.com")

	w := httptest.NewRecorder()
	handler.Me(w, req)

	var resp handlers.AccountResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "acc1", resp.ID)
	assert.Equal(t, "user@example.com", resp.Email)
	assert.Equal(t, "Test User", resp.Name)
}

func TestMe_NoAuthContext(t *testing.T) {
	handler := handlers.NewAccountHandler(&stubAccountReader{}, &stubHistoryReader{})

	req := handlers.NewTestRequest(t, "GET", "/auth/me", nil)
	w := httptest.NewRecorder()
	handler.Me(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestMe_AccountGone(t *testing.T) {
	handler := handlers.NewAccountHandler(&stubAccountReader{}, &stubHistoryReader{})

	req := handlers.NewTestRequest(t, "GET", "/auth/me", nil)
	req = handlers.WithAuthContext(req, "deleted", "gone@example.com")

	w := httptest.NewRecorder()
	handler.Me(w, req)

	handlers.AssertErrorResponse(t, w, 404, "not_found")
}

func TestHistory_Success(t *testing.T) {
	reason := "invalid_credentials"
	account := &models.Account{ID: "acc1", Email: "user@example.com"}
	history := &stubHistoryReader{entries: []*models.LoginHistoryEntry{
		{Email: "user@example.com", Method: models.LoginMethodPassword, Success: true, AttemptTime: time.Now()},
		{Email: "user@example.com", Method: models.LoginMethodPassword, Success: false, FailureReason: &reason, AttemptTime: time.Now()},
	}}
	handler := handlers.NewAccountHandler(&stubAccountReader{account: account}, history)

	req := handlers.NewTestRequest(t, "GET", "/auth/history", nil)
	req = handlers.WithAuthContext(req, "acc1", "user@example.com")

	w := httptest.NewRecorder()
	handler.History(w, req)

	var resp struct {
		History []handlers.LoginHistoryItem `json:"history"`
	}
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Len(t, resp.History, 2)
	assert.True(t, resp.History[0].Success)
	assert.Equal(t, &reason, resp.History[1].FailureReason)
}
