package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/handlers"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/services"
)

func TestSignupSendOTP_Success(t *testing.T) {
	handler := handlers.NewSignupHandler(&handlers.MockSignupService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/signup/otp/send", handlers.SendOTPRequest{
		Email: "new@example.com",
	})

	w := httptest.NewRecorder()
	handler.SendOTP(w, req)

	var resp handlers.SendResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, int64(600), resp.ExpiresIn)
}

func TestSignupSendOTP_EmailTaken(t *testing.T) {
	mockSignup := &handlers.MockSignupService{
		SendOTPFunc: func(ctx context.Context, email, locale string) (*services.OTPSendResult, error) {
			return nil, models.ErrConflict
		},
	}

	handler := handlers.NewSignupHandler(mockSignup, nil)
	req := handlers.NewTestRequest(t, "POST", "/signup/otp/send", handlers.SendOTPRequest{
		Email: "taken@example.com",
	})

	w := httptest.NewRecorder()
	handler.SendOTP(w, req)

	handlers.AssertErrorResponse(t, w, 409, "conflict")
}

func TestSignupVerifyOTP_Success(t *testing.T) {
	mockSignup := &handlers.MockSignupService{
		VerifyOTPFunc: func(ctx context.Context, email, code string) (*services.SignupVerifyResult, error) {
			assert.Equal(t, "new@example.com", email)
			assert.Equal(t, "123456", code)
			return &services.SignupVerifyResult{SessionToken: "session-token-abc", ExpiresIn: 600}, nil
		},
	}

	handler := handlers.NewSignupHandler(mockSignup, nil)
	req := handlers.NewTestRequest(t, "POST", "/signup/otp/verify", handlers.SignupVerifyOTPRequest{
		Email: "New@Example.com",
		Code:  "123456",
	})

	w := httptest.NewRecorder()
	handler.VerifyOTP(w, req)

	var resp services.SignupVerifyResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "session-token-abc", resp.SessionToken)
}

func TestSignupComplete_Success(t *testing.T) {
	mockSignup := &handlers.MockSignupService{
		CompleteFunc: func(ctx context.Context, params services.CompleteSignupParams) (*models.TokenPair, error) {
			assert.Equal(t, "new@example.com", params.Email)
			assert.Equal(t, "session-token-abc", params.SessionToken)
			assert.Equal(t, "New User", params.Name)
			return &models.TokenPair{AccessToken: "access_token_new"}, nil
		},
	}

	handler := handlers.NewSignupHandler(mockSignup, nil)
	req := handlers.NewTestRequest(t, "POST", "/signup/complete", handlers.CompleteSignupRequest{
		Email:        "new@example.com",
		SessionToken: "session-token-abc",
		Password:     "Str0ng-Passw0rd!",
		Name:         "New User",
	})

	w := httptest.NewRecorder()
	handler.Complete(w, req)

	var resp models.TokenPair
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, "access_token_new", resp.AccessToken)
}

func TestSignupComplete_InvalidSession(t *testing.T) {
	handler := handlers.NewSignupHandler(&handlers.MockSignupService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/signup/complete", handlers.CompleteSignupRequest{
		Email:        "new@example.com",
		SessionToken: "stale-token",
		Password:     "Str0ng-Passw0rd!",
		Name:         "New User",
	})

	w := httptest.NewRecorder()
	handler.Complete(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestSignupComplete_MissingName(t *testing.T) {
	handler := handlers.NewSignupHandler(&handlers.MockSignupService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/signup/complete", handlers.CompleteSignupRequest{
		Email:        "new@example.com",
		SessionToken: "session-token-abc",
		Password:     "Str0ng-Passw0rd!",
	})

	w := httptest.NewRecorder()
	handler.Complete(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}
