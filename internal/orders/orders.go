// Package orders is the read path for orders plus the admin status update.
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/01moynul/culinamarket/internal/models"
	"github.com/01moynul/culinamarket/internal/repository"
	"go.uber.org/zap"
)

var (
	// ErrNotFound covers both a missing order and an order owned by
	// someone else.
	ErrNotFound      = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
	ErrForbidden     = errors.New("admin access required")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	recentOrders    = 10
)

type Store interface {
	FindByID(ctx context.Context, id string) (*models.Order, error)
	Items(ctx context.Context, orderID string) ([]models.OrderItem, error)
	Shipping(ctx context.Context, orderID string) (*models.OrderShipping, error)
	List(ctx context.Context, filter models.OrderFilter, page models.Page) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
	Stats(ctx context.Context, recent int) (*models.DashboardStats, error)
}

type EventPublisher interface {
	PublishOrderStatusChanged(ctx context.Context, orderID string, status models.OrderStatus) error
}

// Filter narrows a listing. OwnerID is honoured for admins only; customers
// are always scoped to themselves.
type Filter struct {
	Status  string
	OwnerID string
}

type Service struct {
	store  Store
	events EventPublisher
	log    *zap.Logger
}

func NewService(store Store, events EventPublisher, log *zap.Logger) *Service {
	return &Service{store: store, events: events, log: log}
}

// Get assembles one order for display.
func (s *Service) Get(ctx context.Context, id string, caller models.Identity) (*models.OrderDetails, error) {
	order, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !caller.IsAdmin && order.UserID != caller.UserID {
		return nil, ErrNotFound
	}

	items, err := s.store.Items(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	shipping, err := s.store.Shipping(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	return &models.OrderDetails{Order: *order, Items: items, Shipping: shipping}, nil
}

// List returns a newest-first page of orders and the total count.
func (s *Service) List(ctx context.Context, caller models.Identity, filter Filter, page models.Page) ([]models.Order, models.Pagination, error) {
	page = NormalizePage(page)

	f := models.OrderFilter{UserID: caller.UserID}
	if caller.IsAdmin {
		f.UserID = filter.OwnerID
	}
	if filter.Status != "" {
		status, ok := models.ParseOrderStatus(filter.Status)
		if !ok {
			return nil, models.Pagination{}, ErrInvalidStatus
		}
		f.Status = status
	}

	orders, total, err := s.store.List(ctx, f, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return orders, models.NewPagination(page, total), nil
}

// UpdateStatus overwrites an order's status. Any valid status may follow
// any other so staff can correct mistakes.
func (s *Service) UpdateStatus(ctx context.Context, caller models.Identity, id, status string) error {
	if !caller.IsAdmin {
		return ErrForbidden
	}
	st, ok := models.ParseOrderStatus(status)
	if !ok {
		return ErrInvalidStatus
	}

	if err := s.store.UpdateStatus(ctx, id, st); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.log.Info("order status updated", zap.String("order_id", id), zap.String("status", string(st)), zap.String("by", caller.UserID))
	if err := s.events.PublishOrderStatusChanged(ctx, id, st); err != nil {
		s.log.Warn("order status event not published", zap.String("order_id", id), zap.Error(err))
	}
	return nil
}

func (s *Service) Stats(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.store.Stats(ctx, recentOrders)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}

// NormalizePage clamps page to sane bounds.
func NormalizePage(p models.Page) models.Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}
