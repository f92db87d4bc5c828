package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/uniportal/registrar-api/internal/models"
)

// UserRepository provides database access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `user_id, username, password_hash, role, created_at, updated_at`

// FindByUsername returns a user by username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, userID int) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE user_id = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// MaxUserID returns the highest issued user id. The boolean is false when
// the users table is empty.
func (r *UserRepository) MaxUserID(ctx context.Context) (int, bool, error) {
	const query = `SELECT MAX(user_id) FROM users`
	var max sql.NullInt64
	if err := r.db.GetContext(ctx, &max, query); err != nil {
		return 0, false, fmt.Errorf("max user id: %w", err)
	}
	if !max.Valid {
		return 0, false, nil
	}
	return int(max.Int64), true, nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query, userID, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
