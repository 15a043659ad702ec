package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/services"
	pkghttp "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/http"
)

// SignupServiceInterface defines the interface for the signup flow
type SignupServiceInterface interface {
	SendOTP(ctx context.Context, email, locale string) (*services.OTPSendResult, error)
	VerifyOTP(ctx context.Context, email, code string) (*services.SignupVerifyResult, error)
	Complete(ctx context.Context, params services.CompleteSignupParams) (*models.TokenPair, error)
}

// SignupHandler handles signup-related HTTP requests
type SignupHandler struct {
	service  SignupServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewSignupHandler creates a new SignupHandler
func NewSignupHandler(service SignupServiceInterface, ipConfig *pkghttp.IPConfig) *SignupHandler {
	return &SignupHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// SignupVerifyOTPRequest represents the request body for the email verification step
type SignupVerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric"`
}

// CompleteSignupRequest represents the request body for the final signup step
type CompleteSignupRequest struct {
	Email        string `json:"email" validate:"required,email"`
	SessionToken string `json:"session_token" validate:"required"`
	Password     string `json:"password" validate:"required"`
	Name         string `json:"name" validate:"required,min=1,max=255"`
}

// SendOTP starts a signup by dispatching a verification code
func (h *SignupHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest
	tr := requestTranslator(r)

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = normalizeEmail(req.Email)

	result, err := h.service.SendOTP(r.Context(), req.Email, tr.Locale())
	if err != nil {
		writeServiceError(w, tr, err)
		return
	}

	writeJSON(w, http.StatusOK, SendResponse{
		Message:         tr.T("otp.sent", nil),
		ExpiresIn:       result.ExpiresIn,
		CooldownSeconds: result.CooldownSeconds,
	})
}

// VerifyOTP redeems the signup code and issues a signup session token
func (h *SignupHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req SignupVerifyOTPRequest
	tr := requestTranslator(r)

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = normalizeEmail(req.Email)

	result, err := h.service.VerifyOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, tr, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Complete creates the account and logs the new user in
func (h *SignupHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteSignupRequest
	tr := requestTranslator(r)

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = normalizeEmail(req.Email)

	pair, err := h.service.Complete(r.Context(), services.CompleteSignupParams{
		Email:        req.Email,
		SessionToken: req.SessionToken,
		Password:     req.Password,
		Name:         req.Name,
		Meta: services.RequestMeta{
			IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
			UserAgent: r.Header.Get("User-Agent"),
			Locale:    tr.Locale(),
		},
	})
	if err != nil {
		writeServiceError(w, tr, err)
		return
	}

	writeJSON(w, http.StatusCreated, pair)
}
