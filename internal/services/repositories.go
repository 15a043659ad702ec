package services

import (
	"context"
	"time"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
)

// AccountRepository defines the interface for persistent account records.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	StoreTempPassword(ctx context.Context, id, hash string, expiresAt time.Time) error
	MarkTempPasswordUsed(ctx context.Context, id string) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

// LoginHistoryRepository defines the interface for the login-history
// collaborator. Every failed-attempt path records an entry before raising
// its error.
type LoginHistoryRepository interface {
	Record(ctx context.Context, entry *models.LoginHistoryEntry) error
}
