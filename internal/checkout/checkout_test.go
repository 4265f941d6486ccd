package checkout

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/01moynul/culinamarket/internal/cart"
	"github.com/01moynul/culinamarket/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	orders   []models.Order
	items    map[string][]models.OrderItem
	shipping map[string]models.OrderShipping
	flagged  []string

	createErr   error
	itemsErr    error
	shippingErr error
	existing    *models.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string][]models.OrderItem{}, shipping: map[string]models.OrderShipping{}}
}

func (s *fakeStore) CreateOrder(_ context.Context, o *models.Order) (*models.Order, bool, error) {
	if s.createErr != nil {
		return nil, false, s.createErr
	}
	if s.existing != nil {
		return s.existing, true, nil
	}
	s.orders = append(s.orders, *o)
	return o, false, nil
}

func (s *fakeStore) InsertItems(_ context.Context, orderID string, items []models.OrderItem) error {
	if s.itemsErr != nil {
		return s.itemsErr
	}
	s.items[orderID] = items
	return nil
}

func (s *fakeStore) InsertShipping(_ context.Context, sh models.OrderShipping) error {
	if s.shippingErr != nil {
		return s.shippingErr
	}
	s.shipping[sh.OrderID] = sh
	return nil
}

func (s *fakeStore) FlagNeedsAttention(_ context.Context, orderID string) error {
	s.flagged = append(s.flagged, orderID)
	return nil
}

type recordingPublisher struct {
	placed []models.Order
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, o models.Order, _ []models.OrderItem) error {
	p.placed = append(p.placed, o)
	return nil
}

func validForm() Form {
	return Form{
		Name:       "Ana Putri",
		Email:      "ana@example.com",
		Address:    "Jl. Mawar 1",
		City:       "Jakarta",
		PostalCode: "12345",
		CardNumber: "4111 1111 1111 1111",
		Expiry:     "12/28",
		CVC:        "123",
	}
}

// twoItemCart stores a cart for "session-1" and returns its storage.
func twoItemCart(t *testing.T) *cart.MemoryStorage {
	t.Helper()
	ctx := context.Background()
	storage := cart.NewMemoryStorage()
	c := cart.Open(ctx, storage, "session-1", zap.NewNop())
	a := cart.Product{ID: "A", Name: "Chicken Breast", Price: 10000}
	c.AddItem(ctx, a)
	c.AddItem(ctx, a)
	c.AddItem(ctx, cart.Product{ID: "B", Name: "Eggs", Price: 5000})
	return storage
}

func sessionCart(storage cart.Storage) *cart.Cart {
	return cart.Open(context.Background(), storage, "session-1", zap.NewNop())
}

func newOrchestrator(store OrderStore, carts cart.Storage, events EventPublisher) *Orchestrator {
	o := New(store, carts, NewMemoryGuard(), events, zap.NewNop())
	o.newID = func() string { return "order-1" }
	return o
}

// hookGuard runs beforeAcquire once, right before delegating the first Acquire.
type hookGuard struct {
	Guard
	beforeAcquire func()
}

func (g *hookGuard) Acquire(ctx context.Context, sessionID string) (bool, error) {
	if g.beforeAcquire != nil {
		fn := g.beforeAcquire
		g.beforeAcquire = nil
		fn()
	}
	return g.Guard.Acquire(ctx, sessionID)
}

func TestSubmit_PersistsOrderWithCartSnapshot(t *testing.T) {
	store := newFakeStore()
	events := &recordingPublisher{}
	carts := twoItemCart(t)

	res, err := newOrchestrator(store, carts, events).Submit(context.Background(), Request{
		SessionID: "session-1", OwnerID: "user-1", Form: validForm(),
	})
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, res.State)
	require.Len(t, store.orders, 1)
	assert.Equal(t, int64(25000), store.orders[0].TotalAmount)
	assert.Equal(t, models.OrderStatusPending, store.orders[0].Status)
	assert.Equal(t, "user-1", store.orders[0].UserID)

	items := store.items["order-1"]
	require.Len(t, items, 2)
	assert.Equal(t, models.OrderItem{OrderID: "order-1", ProductID: "A", Quantity: 2, PriceAtPurchase: 10000}, items[0])
	assert.Equal(t, int64(5000), items[1].PriceAtPurchase)

	assert.Equal(t, "12345", store.shipping["order-1"].PostalCode)
	assert.False(t, res.NeedsAttention)
	assert.Empty(t, store.flagged)
	assert.Len(t, events.placed, 1)
	assert.True(t, sessionCart(carts).IsEmpty(), "cart is cleared after success")
}

func TestSubmit_OrderCreationFailureKeepsCart(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("connection refused")
	carts := twoItemCart(t)

	res, err := newOrchestrator(store, carts, &recordingPublisher{}).Submit(context.Background(), Request{
		SessionID: "session-1", OwnerID: "user-1", Form: validForm(),
	})
	require.Error(t, err)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, 3, sessionCart(carts).TotalItems())
}

func TestSubmit_PartialWriteFlagsOrder(t *testing.T) {
	store := newFakeStore()
	store.itemsErr = errors.New("deadlock")
	carts := twoItemCart(t)

	res, err := newOrchestrator(store, carts, &recordingPublisher{}).Submit(context.Background(), Request{
		SessionID: "session-1", OwnerID: "user-1", Form: validForm(),
	})
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, res.State)
	assert.True(t, res.NeedsAttention)
	assert.True(t, res.Order.NeedsAttention)
	assert.Equal(t, []string{"order-1"}, store.flagged)
	assert.Contains(t, store.shipping, "order-1", "shipping is still attempted")
	assert.True(t, sessionCart(carts).IsEmpty())
}

func TestSubmit_GuestSkipsPersistence(t *testing.T) {
	store := newFakeStore()
	carts := twoItemCart(t)

	res, err := newOrchestrator(store, carts, &recordingPublisher{}).Submit(context.Background(), Request{
		SessionID: "session-1", Form: validForm(),
	})
	require.NoError(t, err)
	assert.True(t, res.Guest)
	assert.Equal(t, StateSucceeded, res.State)
	assert.Empty(t, store.orders)
	assert.True(t, sessionCart(carts).IsEmpty())
}

func TestSubmit_InvalidFormNeverSubmits(t *testing.T) {
	store := newFakeStore()
	form := validForm()
	form.Email = "a@b"
	form.City = "   "

	res, err := newOrchestrator(store, twoItemCart(t), &recordingPublisher{}).Submit(context.Background(), Request{
		SessionID: "session-1", OwnerID: "user-1", Form: form,
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, StateIdle, res.State)
	assert.Contains(t, res.FieldErrors, "email")
	assert.Contains(t, res.FieldErrors, "city")
	assert.Empty(t, store.orders)
}

func TestSubmit_EmptyCartIsRejected(t *testing.T) {
	o := newOrchestrator(newFakeStore(), cart.NewMemoryStorage(), &recordingPublisher{})

	_, err := o.Submit(context.Background(), Request{SessionID: "s", OwnerID: "user-1", Form: validForm()})
	require.ErrorIs(t, err, ErrEmptyCart)

	ok, err := o.guard.Acquire(context.Background(), "s")
	require.NoError(t, err)
	assert.True(t, ok, "guard is released after an empty-cart rejection")
}

func TestSubmit_RejectsConcurrentSubmitForSession(t *testing.T) {
	ctx := context.Background()
	guard := NewMemoryGuard()
	ok, err := guard.Acquire(ctx, "session-1")
	require.NoError(t, err)
	require.True(t, ok)

	store := newFakeStore()
	o := New(store, twoItemCart(t), guard, &recordingPublisher{}, zap.NewNop())

	res, err := o.Submit(ctx, Request{SessionID: "session-1", OwnerID: "user-1", Form: validForm()})
	require.ErrorIs(t, err, ErrSubmitInProgress)
	assert.Equal(t, StateSubmitting, res.State)
	assert.Empty(t, store.orders)

	require.NoError(t, guard.Release(ctx, "session-1"))
	_, err = o.Submit(ctx, Request{SessionID: "session-1", OwnerID: "user-1", Form: validForm()})
	require.NoError(t, err)
}

func TestSubmit_IdempotentReplayDoesNotRewrite(t *testing.T) {
	store := newFakeStore()
	store.existing = &models.Order{ID: "order-0", UserID: "user-1", Status: models.OrderStatusPending, TotalAmount: 25000}
	events := &recordingPublisher{}
	carts := twoItemCart(t)

	res, err := newOrchestrator(store, carts, events).Submit(context.Background(), Request{
		SessionID: "session-1", OwnerID: "user-1", IdempotencyKey: "k-1", Form: validForm(),
	})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, "order-0", res.Order.ID)
	assert.Empty(t, store.items)
	assert.Empty(t, events.placed)
	assert.True(t, sessionCart(carts).IsEmpty())
}

func TestSubmit_LongIdempotencyKeyIsRejected(t *testing.T) {
	store := newFakeStore()

	res, err := newOrchestrator(store, twoItemCart(t), &recordingPublisher{}).Submit(context.Background(), Request{
		SessionID: "session-1", OwnerID: "user-1", IdempotencyKey: strings.Repeat("k", MaxIdempotencyKeyLength+1), Form: validForm(),
	})
	require.ErrorIs(t, err, ErrIdempotencyKey)
	assert.Equal(t, StateIdle, res.State)
	assert.Empty(t, store.orders)
}

func TestSubmit_SecondSubmitSeesClearedCart(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	carts := twoItemCart(t)
	guard := &hookGuard{Guard: NewMemoryGuard()}
	o := New(store, carts, guard, &recordingPublisher{}, zap.NewNop())

	// The first submit runs to completion while the second waits for the guard.
	var firstErr error
	guard.beforeAcquire = func() {
		_, firstErr = o.Submit(ctx, Request{SessionID: "session-1", OwnerID: "user-1", Form: validForm()})
	}

	_, err := o.Submit(ctx, Request{SessionID: "session-1", OwnerID: "user-1", Form: validForm()})
	require.NoError(t, firstErr)
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Len(t, store.orders, 1, "no duplicate order")
}

func TestSubmit_HugeQuantityKeepsTotalPositive(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	carts := cart.NewMemoryStorage()
	c := sessionCart(carts)
	c.AddItem(ctx, cart.Product{ID: "A", Name: "Chicken Breast", Price: 10000})
	c.UpdateQuantity(ctx, "A", math.MaxInt64/10000+1)

	_, err := newOrchestrator(store, carts, &recordingPublisher{}).Submit(ctx, Request{
		SessionID: "session-1", OwnerID: "user-1", Form: validForm(),
	})
	require.NoError(t, err)
	require.Len(t, store.orders, 1)
	assert.Equal(t, int64(cart.MaxQuantity)*10000, store.orders[0].TotalAmount)
}
