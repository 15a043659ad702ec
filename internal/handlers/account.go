package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/auth"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
	pkghttp "github.com/LeVanAnhDuc/api-web-store-apps-sub000/pkg/http"
)

// AccountReader defines the lookup used by the profile endpoint
type AccountReader interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

// HistoryReader defines the lookup used by the login-history endpoint
type HistoryReader interface {
	ListByEmail(ctx context.Context, email string, limit int) ([]*models.LoginHistoryEntry, error)
}

// AccountHandler handles authenticated account HTTP requests
type AccountHandler struct {
	repo    AccountReader
	history HistoryReader
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(repo AccountReader, history HistoryReader) *AccountHandler {
	return &AccountHandler{repo: repo, history: history}
}

// AccountResponse is the public projection of an account
type AccountResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Me returns the profile of the authenticated account
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	account, err := h.repo.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Account not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, AccountResponse{
		ID:            account.ID,
		Email:         account.Email,
		Name:          account.Name,
		Role:          account.Role,
		EmailVerified: account.EmailVerified,
		LastLoginAt:   account.LastLoginAt,
		CreatedAt:     account.CreatedAt,
	})
}

// historyLimit caps how many rows the login-history endpoint returns.
const historyLimit = 20

// LoginHistoryItem is the public projection of a login-history row
type LoginHistoryItem struct {
	Method        string    `json:"method"`
	IPAddress     string    `json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
	AttemptTime   time.Time `json:"attempt_time"`
	Success       bool      `json:"success"`
	FailureReason *string   `json:"failure_reason,omitempty"`
}

// History returns the recent login attempts recorded for the authenticated
// account, newest first.
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	account, err := h.repo.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Account not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	entries, err := h.history.ListByEmail(r.Context(), account.Email, historyLimit)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	items := make([]LoginHistoryItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, LoginHistoryItem{
			Method:        entry.Method,
			IPAddress:     entry.IPAddress,
			UserAgent:     entry.UserAgent,
			AttemptTime:   entry.AttemptTime,
			Success:       entry.Success,
			FailureReason: entry.FailureReason,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"history": items})
}
