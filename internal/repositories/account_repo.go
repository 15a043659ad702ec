package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/database"
	"github.com/LeVanAnhDuc/api-web-store-apps-sub000/internal/models"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{pool: db.Pool}
}

// rowScanner interface for scanning account rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const accountColumns = `id, email, password_hash, name, active, email_verified, role,
	temp_password_hash, temp_password_expires_at, temp_password_used,
	last_login_at, created_at, updated_at`

// scanAccountRow handles nullable fields and populates an Account model from a database row
func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account

	err := scanner.Scan(
		&account.ID, &account.Email, &account.PasswordHash, &account.Name,
		&account.Active, &account.EmailVerified, &account.Role,
		&account.TempPasswordHash, &account.TempPasswordExpiresAt, &account.TempPasswordUsed,
		&account.LastLoginAt, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &account, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE id = $1`, accountColumns)

	account, err := scanAccountRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM accounts WHERE email = $1`, accountColumns)

	account, err := scanAccountRow(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	account.ID = uuid.New().String()

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	if account.Role == "" {
		account.Role = "user"
	}

	query := fmt.Sprintf(`
		INSERT INTO accounts (id, email, password_hash, name, active, email_verified, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s
	`, accountColumns)

	created, err := scanAccountRow(r.pool.QueryRow(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.Name,
		account.Active, account.EmailVerified, account.Role,
		account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE accounts SET last_login_at = $1, updated_at = $2 WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, at, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) StoreTempPassword(ctx context.Context, id, hash string, expiresAt time.Time) error {
	query := `
		UPDATE accounts
		SET temp_password_hash = $1, temp_password_expires_at = $2, temp_password_used = false, updated_at = $3
		WHERE id = $4
	`

	result, err := r.pool.Exec(ctx, query, hash, expiresAt, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) MarkTempPasswordUsed(ctx context.Context, id string) error {
	query := `UPDATE accounts SET temp_password_used = true, updated_at = $1 WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, database.MapPostgresError(err)
	}

	return exists, nil
}
