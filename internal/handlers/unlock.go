package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/services"
	pkghttp "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/http"
)

// UnlockServiceInterface defines the interface for the account unlock flow
type UnlockServiceInterface interface {
	Request(ctx context.Context, email string, meta services.RequestMeta) error
	Verify(ctx context.Context, email, tempPassword string, meta services.RequestMeta) (*models.TokenPair, error)
}

// UnlockHandler handles account-unlock HTTP requests
type UnlockHandler struct {
	service  UnlockServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewUnlockHandler creates a new UnlockHandler
func NewUnlockHandler(service UnlockServiceInterface, ipConfig *pkghttp.IPConfig) *UnlockHandler {
	return &UnlockHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// UnlockRequestRequest represents the request body for requesting an unlock
type UnlockRequestRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// UnlockVerifyRequest represents the request body for redeeming a temporary password
type UnlockVerifyRequest struct {
	Email        string `json:"email" validate:"required,email"`
	TempPassword string `json:"temp_password" validate:"required"`
}

// MessageResponse is a plain acknowledgement body
type MessageResponse struct {
	Message string `json:"message"`
}

// Request dispatches a temporary password to a locked account
func (h *UnlockHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequestRequest
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
	meta := services.RequestMeta{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
		Locale:    tr.Locale(),
	}

	if err := h.service.Request(r.Context(), req.Email, meta); err != nil {
		writeServiceError(w, tr, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{
		Message: tr.T("unlock.requested", nil),
	})
}

// Verify redeems a temporary password, lifts the lockout and logs in
func (h *UnlockHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req UnlockVerifyRequest
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
	meta := services.RequestMeta{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
		Locale:    tr.Locale(),
	}

	pair, err := h.service.Verify(r.Context(), req.Email, req.TempPassword, meta)
	if err != nil {
		writeServiceError(w, tr, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}
