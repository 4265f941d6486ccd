package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/culinamarket/internal/models"
)

type OrderRepository interface {
	// CreateOrder inserts o. When o carries an idempotency key already used
	// by the same owner, the existing order is returned with existed=true.
	CreateOrder(ctx context.Context, o *models.Order) (created *models.Order, existed bool, err error)
	InsertItems(ctx context.Context, orderID string, items []models.OrderItem) error
	InsertShipping(ctx context.Context, s models.OrderShipping) error
	FlagNeedsAttention(ctx context.Context, orderID string) error

	FindByID(ctx context.Context, id string) (*models.Order, error)
	Items(ctx context.Context, orderID string) ([]models.OrderItem, error)
	Shipping(ctx context.Context, orderID string) (*models.OrderShipping, error)
	List(ctx context.Context, filter models.OrderFilter, page models.Page) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	Stats(ctx context.Context, recent int) (*models.DashboardStats, error)
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = "id, user_id, status, total_amount, idempotency_key, needs_attention, created_at, updated_at"

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	var key sql.NullString
	if err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &key, &o.NeedsAttention, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if key.Valid {
		o.IdempotencyKey = &key.String
	}
	return &o, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, o *models.Order) (*models.Order, bool, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = o.CreatedAt

	query := `
		INSERT INTO orders (id, user_id, status, total_amount, idempotency_key, needs_attention, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.UserID, o.Status, o.TotalAmount, o.IdempotencyKey, o.NeedsAttention, o.CreatedAt, o.UpdatedAt)
	if err == nil {
		return o, false, nil
	}

	if isDuplicateEntry(err) && o.IdempotencyKey != nil {
		row := r.db.QueryRowContext(ctx,
			"SELECT "+orderColumns+" FROM orders WHERE user_id = ? AND idempotency_key = ?",
			o.UserID, *o.IdempotencyKey)
		existing, scanErr := scanOrder(row)
		if scanErr != nil {
			return nil, false, fmt.Errorf("load order for idempotency key: %w", scanErr)
		}
		return existing, true, nil
	}

	return nil, false, fmt.Errorf("insert order: %w", err)
}

// InsertItems writes all line items in one transaction.
func (r *orderRepository) InsertItems(ctx context.Context, orderID string, items []models.OrderItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare order item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, orderID, item.ProductID, item.Quantity, item.PriceAtPurchase); err != nil {
			return fmt.Errorf("insert order item %s: %w", item.ProductID, err)
		}
	}

	return tx.Commit()
}

func (r *orderRepository) InsertShipping(ctx context.Context, s models.OrderShipping) error {
	query := `
		INSERT INTO order_shipping (order_id, name, email, address, city, postal_code)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, s.OrderID, s.Name, s.Email, s.Address, s.City, s.PostalCode); err != nil {
		return fmt.Errorf("insert order shipping: %w", err)
	}
	return nil
}

func (r *orderRepository) FlagNeedsAttention(ctx context.Context, orderID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE orders SET needs_attention = TRUE, updated_at = ? WHERE id = ?",
		time.Now().UTC(), orderID)
	if err != nil {
		return fmt.Errorf("flag order: %w", err)
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return o, nil
}

// Items returns the order's line items joined with product display fields.
func (r *orderRepository) Items(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price_at_purchase,
		       COALESCE(p.name, ''), COALESCE(p.image_url, '')
		FROM order_items oi
		LEFT JOIN products p ON oi.product_id = p.id
		WHERE oi.order_id = ?
		ORDER BY oi.id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceAtPurchase,
			&it.ProductName, &it.ProductImageURL); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Shipping returns nil, nil when the order has no shipping row.
func (r *orderRepository) Shipping(ctx context.Context, orderID string) (*models.OrderShipping, error) {
	var s models.OrderShipping
	err := r.db.QueryRowContext(ctx,
		"SELECT order_id, name, email, address, city, postal_code FROM order_shipping WHERE order_id = ?",
		orderID).Scan(&s.OrderID, &s.Name, &s.Email, &s.Address, &s.City, &s.PostalCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query order shipping: %w", err)
	}
	return &s, nil
}

func (r *orderRepository) List(ctx context.Context, filter models.OrderFilter, page models.Page) ([]models.Order, int64, error) {
	var where strings.Builder
	var args []any

	where.WriteString(" WHERE 1 = 1")
	if filter.UserID != "" {
		where.WriteString(" AND user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		where.WriteString(" AND status = ?")
		args = append(args, filter.Status)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders"+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := "SELECT " + orderColumns + " FROM orders" + where.String() + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, total, rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	// Existence check first: MySQL reports 0 affected rows when the value is unchanged.
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM orders WHERE id = ?", id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("find order: %w", err)
	}

	_, err = r.db.ExecContext(ctx, "UPDATE orders SET status = ?, updated_at = ? WHERE id = ?", status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func (r *orderRepository) Stats(ctx context.Context, recent int) (*models.DashboardStats, error) {
	var stats models.DashboardStats

	query := `
		SELECT
			(SELECT COUNT(*) FROM orders),
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders),
			(SELECT COUNT(*) FROM products WHERE is_deleted = FALSE),
			(SELECT COUNT(*) FROM orders WHERE status = 'Pending')`
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalOrders, &stats.TotalRevenue, &stats.TotalProducts, &stats.PendingOrders,
	); err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	orders, _, err := r.List(ctx, models.OrderFilter{}, models.Page{Number: 1, Size: recent})
	if err != nil {
		return nil, err
	}
	stats.RecentOrders = orders
	return &stats, nil
}
