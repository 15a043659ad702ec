package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/i18n"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/services"
	pkghttp "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/http"
)

// AuthServiceInterface defines the interface for login business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string, meta services.RequestMeta) (*models.TokenPair, error)
	SendLoginOTP(ctx context.Context, email string, meta services.RequestMeta) (*services.OTPSendResult, error)
	VerifyLoginOTP(ctx context.Context, email, code string, meta services.RequestMeta) (*models.TokenPair, error)
	SendMagicLink(ctx context.Context, email string, meta services.RequestMeta) (*services.MagicLinkSendResult, error)
	VerifyMagicLink(ctx context.Context, email, token string, meta services.RequestMeta) (*models.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// Request DTOs

// LoginRequest represents the request body for password login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SendOTPRequest represents the request body for requesting a login code
type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyOTPRequest represents the request body for redeeming a login code
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric"`
}

// SendMagicLinkRequest represents the request body for requesting a login link
type SendMagicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyMagicLinkRequest represents the request body for redeeming a login link
type VerifyMagicLinkRequest struct {
	Email string `json:"email" validate:"required,email"`
	Token string `json:"token" validate:"required"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SendResponse reports delivery metadata after a code or link dispatch
type SendResponse struct {
	Message         string `json:"message"`
	ExpiresIn       int64  `json:"expires_in"`
	CooldownSeconds int64  `json:"cooldown_seconds"`
}

// Login handles password login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
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
	meta := h.requestMeta(r, tr)

	pair, err := h.service.Login(r.Context(), req.Email, req.Password, meta)
	if err != nil {
		writeServiceError(w, tr, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// SendLoginOTP dispatches a one-time login code to the given email
func (h *AuthHandler) SendLoginOTP(w http.ResponseWriter, r *http.Request) {
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
	meta := h.requestMeta(r, tr)

	result, err := h.service.SendLoginOTP(r.Context(), req.Email, meta)
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

// VerifyLoginOTP completes an OTP login
func (h *AuthHandler) VerifyLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
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
	meta := h.requestMeta(r, tr)

	pair, err := h.service.VerifyLoginOTP(r.Context(), req.Email, req.Code, meta)
	if err != nil {
		writeServiceError(w, tr, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// SendMagicLink dispatches a single-use login link to the given email
func (h *AuthHandler) SendMagicLink(w http.ResponseWriter, r *http.Request) {
	var req SendMagicLinkRequest
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
	meta := h.requestMeta(r, tr)

	result, err := h.service.SendMagicLink(r.Context(), req.Email, meta)
	if err != nil {
		writeServiceError(w, tr, err)
		return
	}

	writeJSON(w, http.StatusOK, SendResponse{
		Message:         tr.T("magic_link.sent", nil),
		ExpiresIn:       result.ExpiresIn,
		CooldownSeconds: result.CooldownSeconds,
	})
}

// VerifyMagicLink completes a magic-link login
func (h *AuthHandler) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	var req VerifyMagicLinkRequest
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
	meta := h.requestMeta(r, tr)

	pair, err := h.service.VerifyMagicLink(r.Context(), req.Email, req.Token, meta)
	if err != nil {
		writeServiceError(w, tr, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// RefreshToken exchanges a refresh token for a new token pair
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	tr := requestTranslator(r)

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	pair, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, tr, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) requestMeta(r *http.Request, tr *i18n.Translator) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
		Locale:    tr.Locale(),
	}
}

// requestTranslator picks a translator from the Accept-Language header.
// Only the first tag's primary subtag is considered; unknown locales fall
// back to English.
func requestTranslator(r *http.Request) *i18n.Translator {
	lang := r.Header.Get("Accept-Language")
	if idx := strings.IndexAny(lang, ",;"); idx >= 0 {
		lang = lang[:idx]
	}
	if idx := strings.Index(lang, "-"); idx >= 0 {
		lang = lang[:idx]
	}
	return i18n.New(lang)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
