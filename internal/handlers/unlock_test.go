package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/handlers"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/services"
	pkghttp "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/http"
)

func TestUnlockRequest_Success(t *testing.T) {
	handler := handlers.NewUnlockHandler(&handlers.MockUnlockService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/unlock/request", handlers.UnlockRequestRequest{
		Email: "user@example.com",
	})

	w := httptest.NewRecorder()
	handler.Request(w, req)

	var resp handlers.MessageResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.NotEmpty(t, resp.Message)
}

func TestUnlockRequest_NotLocked(t *testing.T) {
	mockUnlock := &handlers.MockUnlockService{
		RequestFunc: func(ctx context.Context, email string, meta services.RequestMeta) error {
			return models.ErrAccountNotLocked
		},
	}

	handler := handlers.NewUnlockHandler(mockUnlock, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/unlock/request", handlers.UnlockRequestRequest{
		Email: "user@example.com",
	})

	w := httptest.NewRecorder()
	handler.Request(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestUnlockRequest_RateLimited(t *testing.T) {
	mockUnlock := &handlers.MockUnlockService{
		RequestFunc: func(ctx context.Context, email string, meta services.RequestMeta) error {
			return &models.RateLimitedError{RetryAfterSeconds: 1800, Reason: "request_limit"}
		},
	}

	handler := handlers.NewUnlockHandler(mockUnlock, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/unlock/request", handlers.UnlockRequestRequest{
		Email: "user@example.com",
	})

	w := httptest.NewRecorder()
	handler.Request(w, req)

	handlers.AssertErrorResponse(t, w, 429, "rate_limit_exceeded")
	assert.Equal(t, "1800", w.Header().Get("Retry-After"))
}

func TestUnlockVerify_Success(t *testing.T) {
	mockUnlock := &handlers.MockUnlockService{
		VerifyFunc: func(ctx context.Context, email, tempPassword string, meta services.RequestMeta) (*models.TokenPair, error) {
			assert.Equal(t, "user@example.com", email)
			assert.Equal(t, "temp-pass-123", tempPassword)
			return &models.TokenPair{AccessToken: "access_after_unlock"}, nil
		},
	}

	handler := handlers.NewUnlockHandler(mockUnlock, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/unlock/verify", handlers.UnlockVerifyRequest{
		Email:        "user@example.com",
		TempPassword: "temp-pass-123",
	})

	w := httptest.NewRecorder()
	handler.Verify(w, req)

	var resp models.TokenPair
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "access_after_unlock", resp.AccessToken)
}

func TestUnlockVerify_TempPasswordErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"missing", models.ErrTempPasswordMissing},
		{"expired", models.ErrTempPasswordExpired},
		{"used", models.ErrTempPasswordUsed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUnlock := &handlers.MockUnlockService{
				VerifyFunc: func(ctx context.Context, email, tempPassword string, meta services.RequestMeta) (*models.TokenPair, error) {
					return nil, tt.err
				},
			}

			handler := handlers.NewUnlockHandler(mockUnlock, nil)
			req := handlers.NewTestRequest(t, "POST", "/auth/unlock/verify", handlers.UnlockVerifyRequest{
				Email:        "user@example.com",
				TempPassword: "temp-pass-123",
			})

			w := httptest.NewRecorder()
			handler.Verify(w, req)

			handlers.AssertErrorResponse(t, w, 401, "unauthorized")
		})
	}
}

func TestUnlockVerify_MissingTempPasswordNotDistinguishable(t *testing.T) {
	// A never-requested temp password reads like plain bad credentials.
	mockUnlock := &handlers.MockUnlockService{
		VerifyFunc: func(ctx context.Context, email, tempPassword string, meta services.RequestMeta) (*models.TokenPair, error) {
			return nil, models.ErrTempPasswordMissing
		},
	}

	handler := handlers.NewUnlockHandler(mockUnlock, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/unlock/verify", handlers.UnlockVerifyRequest{
		Email:        "user@example.com",
		TempPassword: "whatever",
	})

	w := httptest.NewRecorder()
	handler.Verify(w, req)

	var resp pkghttp.ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "Email or password is incorrect", resp.Message)
}
