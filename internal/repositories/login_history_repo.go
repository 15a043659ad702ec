package repositories

import (
	"context"
	"time"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/database"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
)

// LoginHistoryRepository handles database operations for login history
type LoginHistoryRepository struct {
	db *database.DB
}

// NewLoginHistoryRepository creates a new LoginHistoryRepository
func NewLoginHistoryRepository(db *database.DB) *LoginHistoryRepository {
	return &LoginHistoryRepository{db: db}
}

// Record inserts a login attempt outcome in the history
func (r *LoginHistoryRepository) Record(ctx context.Context, entry *models.LoginHistoryEntry) error {
	query := `
		INSERT INTO login_history (email, method, ip_address, user_agent, attempt_time, success, failure_reason, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		entry.Email,
		entry.Method,
		entry.IPAddress,
		entry.UserAgent,
		entry.AttemptTime,
		entry.Success,
		entry.FailureReason,
		entry.ExpiresAt,
	)

	return err
}

// ListByEmail returns the most recent history entries for an email
func (r *LoginHistoryRepository) ListByEmail(ctx context.Context, email string, limit int) ([]*models.LoginHistoryEntry, error) {
	query := `
		SELECT id, email, method, ip_address, user_agent, attempt_time, success, failure_reason, expires_at
		FROM login_history
		WHERE email = $1
		ORDER BY attempt_time DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, email, limit)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	entries := make([]*models.LoginHistoryEntry, 0)
	for rows.Next() {
		var entry models.LoginHistoryEntry
		err := rows.Scan(
			&entry.ID, &entry.Email, &entry.Method, &entry.IPAddress, &entry.UserAgent,
			&entry.AttemptTime, &entry.Success, &entry.FailureReason, &entry.ExpiresAt,
		)
		if err != nil {
			return nil, database.MapPostgresError(err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return entries, nil
}

// DeleteExpired removes history entries past their retention window
func (r *LoginHistoryRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM login_history WHERE expires_at < $1`

	result, err := r.db.Pool.Exec(ctx, query, before)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
