package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/culinamarket/internal/models"
)

type AddressRepository interface {
	List(ctx context.Context, userID string) ([]models.Address, error)
	Create(ctx context.Context, a *models.Address) error
	Update(ctx context.Context, a *models.Address) error
	Delete(ctx context.Context, userID, id string) error
}

type addressRepository struct {
	db *sql.DB
}

func NewAddressRepository(db *sql.DB) AddressRepository {
	return &addressRepository{db: db}
}

const addressColumns = "id, user_id, label, recipient_name, phone, address_line, city, postal_code, is_default, created_at, updated_at"

// List returns the default address first, then newest first.
func (r *addressRepository) List(ctx context.Context, userID string) ([]models.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE user_id = ? ORDER BY is_default DESC, created_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []models.Address{}
	for rows.Next() {
		var a models.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Label, &a.RecipientName, &a.Phone, &a.AddressLine,
			&a.City, &a.PostalCode, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

// Create inserts a. A default address clears the owner's other defaults in
// the same transaction.
func (r *addressRepository) Create(ctx context.Context, a *models.Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if a.IsDefault {
		if err := unsetDefaults(ctx, tx, a.UserID); err != nil {
			return err
		}
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	a.CreatedAt, a.UpdatedAt = now, now

	query := `
		INSERT INTO addresses (id, user_id, label, recipient_name, phone, address_line, city, postal_code, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, a.ID, a.UserID, a.Label, a.RecipientName, a.Phone,
		a.AddressLine, a.City, a.PostalCode, a.IsDefault, a.CreatedAt, a.UpdatedAt); err != nil {
		return fmt.Errorf("insert address: %w", err)
	}

	return tx.Commit()
}

// Update overwrites an address owned by a.UserID. ErrNotFound covers both a
// missing row and someone else's row.
func (r *addressRepository) Update(ctx context.Context, a *models.Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var createdAt time.Time
	err = tx.QueryRowContext(ctx,
		"SELECT created_at FROM addresses WHERE id = ? AND user_id = ? FOR UPDATE",
		a.ID, a.UserID).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("find address: %w", err)
	}

	if a.IsDefault {
		if err := unsetDefaults(ctx, tx, a.UserID); err != nil {
			return err
		}
	}

	a.CreatedAt = createdAt
	a.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	query := `
		UPDATE addresses
		SET label = ?, recipient_name = ?, phone = ?, address_line = ?, city = ?, postal_code = ?, is_default = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`
	if _, err := tx.ExecContext(ctx, query, a.Label, a.RecipientName, a.Phone, a.AddressLine, a.City,
		a.PostalCode, a.IsDefault, a.UpdatedAt, a.ID, a.UserID); err != nil {
		return fmt.Errorf("update address: %w", err)
	}

	return tx.Commit()
}

func (r *addressRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM addresses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func unsetDefaults(ctx context.Context, q querier, userID string) error {
	if _, err := q.ExecContext(ctx, "UPDATE addresses SET is_default = FALSE WHERE user_id = ? AND is_default = TRUE", userID); err != nil {
		return fmt.Errorf("unset default addresses: %w", err)
	}
	return nil
}
