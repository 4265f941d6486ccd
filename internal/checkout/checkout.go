// Package checkout turns a session cart and a checkout form into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/01moynul/culinamarket/internal/cart"
	"github.com/01moynul/culinamarket/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrValidation       = errors.New("checkout form is invalid")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrSubmitInProgress = errors.New("checkout already in progress")
	ErrIdempotencyKey   = errors.New("idempotency key is too long")
)

// MaxIdempotencyKeyLength matches the orders.idempotency_key column.
const MaxIdempotencyKeyLength = 128

type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// OrderStore is the write side of order storage used by checkout.
type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) (*models.Order, bool, error)
	InsertItems(ctx context.Context, orderID string, items []models.OrderItem) error
	InsertShipping(ctx context.Context, s models.OrderShipping) error
	FlagNeedsAttention(ctx context.Context, orderID string) error
}

type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, order models.Order, items []models.OrderItem) error
}

// Request is one checkout attempt. OwnerID is empty for guests. The cart is
// the session's stored cart, read once the session's guard is held.
type Request struct {
	SessionID      string
	OwnerID        string
	IdempotencyKey string
	Form           Form
}

type Result struct {
	State       State             `json:"-"`
	Order       *models.Order     `json:"order,omitempty"`
	FieldErrors map[string]string `json:"fields,omitempty"`
	// NeedsAttention is set when line items or shipping could not be stored.
	NeedsAttention bool `json:"needsAttention"`
	// Duplicate is set when the idempotency key matched an earlier order.
	Duplicate bool `json:"duplicate"`
	Guest     bool `json:"guest"`
}

type Orchestrator struct {
	store     OrderStore
	carts     cart.Storage
	guard     Guard
	events    EventPublisher
	validator *Validator
	log       *zap.Logger
	newID     func() string
}

func New(store OrderStore, carts cart.Storage, guard Guard, events EventPublisher, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		carts:     carts,
		guard:     guard,
		events:    events,
		validator: NewValidator(),
		log:       log,
		newID:     uuid.NewString,
	}
}

// Submit runs one checkout attempt. A validation failure returns
// ErrValidation with the field errors in the result and leaves the attempt
// Idle. A failure to create the order returns an error and keeps the cart.
// Failures after the order exists are recorded on the order and do not fail
// the attempt.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Result, error) {
	res := &Result{State: StateValidating}

	// 1. --- Validate ---
	if errs := o.validator.Validate(req.Form); errs != nil {
		res.State = StateIdle
		res.FieldErrors = errs
		return res, ErrValidation
	}
	if len(req.IdempotencyKey) > MaxIdempotencyKeyLength {
		res.State = StateIdle
		return res, ErrIdempotencyKey
	}

	// 2. --- One submit per session ---
	acquired, err := o.guard.Acquire(ctx, req.SessionID)
	if err != nil {
		res.State = StateFailed
		return res, fmt.Errorf("acquire checkout guard: %w", err)
	}
	if !acquired {
		res.State = StateSubmitting
		return res, ErrSubmitInProgress
	}
	defer func() {
		if err := o.guard.Release(context.WithoutCancel(ctx), req.SessionID); err != nil {
			o.log.Warn("checkout guard release failed", zap.String("session", req.SessionID), zap.Error(err))
		}
	}()

	// 3. --- Read the cart under the guard ---
	// A submit that just finished has already cleared it.
	ct := cart.Open(ctx, o.carts, req.SessionID, o.log)
	if ct.IsEmpty() {
		res.State = StateIdle
		return res, ErrEmptyCart
	}

	res.State = StateSubmitting
	form := req.Form.normalized()

	// 4. --- Guests are not persisted ---
	if req.OwnerID == "" {
		ct.Clear(ctx)
		res.State = StateSucceeded
		res.Guest = true
		return res, nil
	}

	lines := ct.Items()
	order := &models.Order{
		ID:          o.newID(),
		UserID:      req.OwnerID,
		Status:      models.OrderStatusPending,
		TotalAmount: ct.TotalPrice(),
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		order.IdempotencyKey = &key
	}

	// 5. --- Create the order ---
	created, existed, err := o.store.CreateOrder(ctx, order)
	if err != nil {
		res.State = StateFailed
		o.log.Error("checkout: order creation failed", zap.String("owner", req.OwnerID), zap.Error(err))
		return res, fmt.Errorf("create order: %w", err)
	}
	res.Order = created

	if existed {
		o.log.Info("checkout: idempotent replay", zap.String("order_id", created.ID), zap.String("owner", req.OwnerID))
		res.Duplicate = true
		res.NeedsAttention = created.NeedsAttention
		ct.Clear(ctx)
		res.State = StateSucceeded
		return res, nil
	}

	// 6. --- Line items, priced from the cart snapshot ---
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			OrderID:         created.ID,
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceAtPurchase: line.UnitPrice,
		})
	}

	needsAttention := false
	if err := o.store.InsertItems(ctx, created.ID, items); err != nil {
		needsAttention = true
		o.log.Error("checkout: order items not stored", zap.String("order_id", created.ID), zap.Error(err))
	}

	// 7. --- Shipping snapshot ---
	shipping := models.OrderShipping{
		OrderID:    created.ID,
		Name:       form.Name,
		Email:      form.Email,
		Address:    form.Address,
		City:       form.City,
		PostalCode: form.PostalCode,
	}
	if err := o.store.InsertShipping(ctx, shipping); err != nil {
		needsAttention = true
		o.log.Error("checkout: order shipping not stored", zap.String("order_id", created.ID), zap.Error(err))
	}

	if needsAttention {
		created.NeedsAttention = true
		res.NeedsAttention = true
		if err := o.store.FlagNeedsAttention(ctx, created.ID); err != nil {
			o.log.Error("checkout: could not flag order for attention", zap.String("order_id", created.ID), zap.Error(err))
		}
	}

	// 8. --- Notify and clear ---
	if err := o.events.PublishOrderPlaced(ctx, *created, items); err != nil {
		o.log.Warn("checkout: order placed event not published", zap.String("order_id", created.ID), zap.Error(err))
	}

	ct.Clear(ctx)
	res.State = StateSucceeded
	return res, nil
}
