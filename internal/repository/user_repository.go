package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/culinamarket/internal/models"
)

type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	Upsert(ctx context.Context, u *models.User) error
	IsAdmin(ctx context.Context, id string) (bool, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, email, full_name, is_admin, created_at, last_sign_in_at FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		var lastSignIn sql.NullTime
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.IsAdmin, &u.CreatedAt, &lastSignIn); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if lastSignIn.Valid {
			u.LastSignInAt = &lastSignIn.Time
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Upsert mirrors an authenticated account locally. is_admin is never
// lowered here; it is managed by operators.
func (r *userRepository) Upsert(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	query := `
		INSERT INTO users (id, email, full_name, is_admin, created_at, last_sign_in_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			email = VALUES(email),
			full_name = IF(VALUES(full_name) = '', full_name, VALUES(full_name)),
			is_admin = is_admin OR VALUES(is_admin),
			last_sign_in_at = VALUES(last_sign_in_at)`
	if _, err := r.db.ExecContext(ctx, query, u.ID, u.Email, u.Name, u.IsAdmin, u.CreatedAt, u.LastSignInAt); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *userRepository) IsAdmin(ctx context.Context, id string) (bool, error) {
	var isAdmin bool
	err := r.db.QueryRowContext(ctx, "SELECT is_admin FROM users WHERE id = ?", id).Scan(&isAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query user role: %w", err)
	}
	return isAdmin, nil
}
