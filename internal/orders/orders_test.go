package orders

import (
	"context"
	"testing"

	"github.com/01moynul/culinamarket/internal/models"
	"github.com/01moynul/culinamarket/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	orders     map[string]*models.Order
	lastFilter models.OrderFilter
	lastPage   models.Page
}

func (m *memStore) FindByID(_ context.Context, id string) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) Items(_ context.Context, orderID string) ([]models.OrderItem, error) {
	return []models.OrderItem{{OrderID: orderID, ProductID: "p1", Quantity: 1, PriceAtPurchase: 100, ProductName: "Garlic"}}, nil
}

func (m *memStore) Shipping(context.Context, string) (*models.OrderShipping, error) {
	return nil, nil
}

func (m *memStore) List(_ context.Context, f models.OrderFilter, p models.Page) ([]models.Order, int64, error) {
	m.lastFilter, m.lastPage = f, p
	return []models.Order{}, 25, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id string, status models.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *memStore) Stats(context.Context, int) (*models.DashboardStats, error) {
	return &models.DashboardStats{TotalOrders: 1}, nil
}

type statusEvents struct {
	changed []models.OrderStatus
}

func (e *statusEvents) PublishOrderStatusChanged(_ context.Context, _ string, st models.OrderStatus) error {
	e.changed = append(e.changed, st)
	return nil
}

func newService() (*Service, *memStore, *statusEvents) {
	store := &memStore{orders: map[string]*models.Order{
		"o1": {ID: "o1", UserID: "alice", Status: models.OrderStatusDelivered, TotalAmount: 100},
	}}
	events := &statusEvents{}
	return NewService(store, events, zap.NewNop()), store, events
}

var (
	alice = models.Identity{UserID: "alice"}
	bob   = models.Identity{UserID: "bob"}
	admin = models.Identity{UserID: "root", IsAdmin: true}
)

func TestGet_OwnerAndAdminSeeOrder(t *testing.T) {
	svc, _, _ := newService()

	for _, caller := range []models.Identity{alice, admin} {
		details, err := svc.Get(context.Background(), "o1", caller)
		require.NoError(t, err)
		assert.Equal(t, "o1", details.Order.ID)
		assert.Len(t, details.Items, 1)
		assert.Nil(t, details.Shipping)
	}
}

func TestGet_ForeignAndMissingLookTheSame(t *testing.T) {
	svc, _, _ := newService()

	_, errForeign := svc.Get(context.Background(), "o1", bob)
	_, errMissing := svc.Get(context.Background(), "nope", bob)

	assert.ErrorIs(t, errForeign, ErrNotFound)
	assert.ErrorIs(t, errMissing, ErrNotFound)
	assert.Equal(t, errMissing.Error(), errForeign.Error())
}

func TestList_ScopesCustomersToThemselves(t *testing.T) {
	svc, store, _ := newService()

	_, pg, err := svc.List(context.Background(), alice, Filter{OwnerID: "bob", Status: "Pending"}, models.Page{Number: 2, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, "alice", store.lastFilter.UserID)
	assert.Equal(t, models.OrderStatusPending, store.lastFilter.Status)
	assert.Equal(t, models.Pagination{Total: 25, CurrentPage: 2, Limit: 10, HasPrevPage: true, HasNextPage: true}, pg)

	_, _, err = svc.List(context.Background(), admin, Filter{}, models.Page{})
	require.NoError(t, err)
	assert.Empty(t, store.lastFilter.UserID)
	assert.Equal(t, models.Page{Number: 1, Size: DefaultPageSize}, store.lastPage)

	_, _, err = svc.List(context.Background(), admin, Filter{OwnerID: "bob"}, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, "bob", store.lastFilter.UserID)

	_, _, err = svc.List(context.Background(), alice, Filter{Status: "Lost"}, models.Page{})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateStatus_AllowsAnyTransition(t *testing.T) {
	svc, store, events := newService()

	require.NoError(t, svc.UpdateStatus(context.Background(), admin, "o1", "Pending"))
	assert.Equal(t, models.OrderStatusPending, store.orders["o1"].Status)
	assert.Equal(t, []models.OrderStatus{models.OrderStatusPending}, events.changed)

	assert.ErrorIs(t, svc.UpdateStatus(context.Background(), admin, "o1", "pending"), ErrInvalidStatus)
	assert.ErrorIs(t, svc.UpdateStatus(context.Background(), admin, "missing", "Shipped"), ErrNotFound)
	assert.ErrorIs(t, svc.UpdateStatus(context.Background(), alice, "o1", "Shipped"), ErrForbidden)
}
