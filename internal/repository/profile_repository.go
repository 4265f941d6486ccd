package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/culinamarket/internal/models"
)

type ProfileRepository interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
}

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := r.db.QueryRowContext(ctx,
		"SELECT id, full_name, phone_number, updated_at FROM profiles WHERE id = ?", id,
	).Scan(&p.ID, &p.FullName, &p.PhoneNumber, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepository) Upsert(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	query := `
		INSERT INTO profiles (id, full_name, phone_number, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			full_name = VALUES(full_name),
			phone_number = VALUES(phone_number),
			updated_at = VALUES(updated_at)`
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.FullName, p.PhoneNumber, p.UpdatedAt); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
