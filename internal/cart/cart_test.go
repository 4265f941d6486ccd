package cart

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/01moynul/culinamarket/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	spinach = Product{ID: "p-spinach", Name: "Fresh Spinach", Price: 15000, ImageURL: "https://img.test/spinach.jpg"}
	salmon  = Product{ID: "p-salmon", Name: "Salmon Fillet", Price: 75000}
)

type failingStorage struct {
	saves int
}

func (s *failingStorage) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("storage offline")
}

func (s *failingStorage) Save(context.Context, string, []byte) error {
	s.saves++
	return errors.New("storage offline")
}

func openEmpty(t *testing.T) (*Cart, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage()
	return Open(context.Background(), storage, "session-1", zap.NewNop()), storage
}

func TestAddItem_IncrementsExistingLine(t *testing.T) {
	ctx := context.Background()
	c, _ := openEmpty(t)

	c.AddItem(ctx, spinach)
	c.AddItem(ctx, Product{ID: spinach.ID, Name: spinach.Name, Price: 99999, ImageURL: "other.jpg"})

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(15000), items[0].UnitPrice)
	assert.Equal(t, spinach.ImageURL, items[0].ImageURL)
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()

	for _, n := range []int{0, -1} {
		c, _ := openEmpty(t)
		c.AddItem(ctx, spinach)
		c.UpdateQuantity(ctx, spinach.ID, n)
		assert.Empty(t, c.Items(), "quantity %d removes the line", n)
	}

	c, _ := openEmpty(t)
	c.AddItem(ctx, spinach)
	c.UpdateQuantity(ctx, "missing", 4)
	assert.Equal(t, []models.CartItem{{ProductID: spinach.ID, Name: spinach.Name, UnitPrice: 15000, Quantity: 1, ImageURL: spinach.ImageURL}}, c.Items())

	c.UpdateQuantity(ctx, spinach.ID, 5)
	assert.Equal(t, 5, c.TotalItems())
	assert.Equal(t, int64(75000), c.TotalPrice())
}

func TestQuantity_IsCappedAtMax(t *testing.T) {
	ctx := context.Background()
	c, storage := openEmpty(t)
	c.AddItem(ctx, salmon)

	c.UpdateQuantity(ctx, salmon.ID, math.MaxInt64/int(salmon.Price)+1)
	assert.Equal(t, MaxQuantity, c.TotalItems())
	assert.Equal(t, int64(MaxQuantity)*salmon.Price, c.TotalPrice())

	c.AddItem(ctx, salmon)
	assert.Equal(t, MaxQuantity, c.Items()[0].Quantity, "add at the cap is a no-op")

	require.NoError(t, storage.Save(ctx, StorageKey("tampered"),
		[]byte(`[{"productId":"p-salmon","name":"Salmon Fillet","unitPrice":75000,"quantity":9223372036854775}]`)))
	tampered := Open(ctx, storage, "tampered", zap.NewNop())
	assert.Equal(t, MaxQuantity, tampered.TotalItems())
	assert.Positive(t, tampered.TotalPrice())
}

func TestRemoveItem_AbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	c, _ := openEmpty(t)
	c.AddItem(ctx, spinach)
	c.AddItem(ctx, salmon)

	c.RemoveItem(ctx, "missing")
	assert.Len(t, c.Items(), 2)

	c.RemoveItem(ctx, spinach.ID)
	require.Len(t, c.Items(), 1)
	assert.Equal(t, salmon.ID, c.Items()[0].ProductID)
}

func TestRandomMutations_KeepInvariants(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	products := []Product{
		spinach, salmon,
		{ID: "p-eggs", Name: "Eggs", Price: 28000},
		{ID: "p-rice", Name: "Jasmine Rice", Price: 85000},
	}

	c, _ := openEmpty(t)
	for i := 0; i < 500; i++ {
		p := products[rng.Intn(len(products))]
		switch rng.Intn(3) {
		case 0:
			c.AddItem(ctx, p)
		case 1:
			c.RemoveItem(ctx, p.ID)
		case 2:
			c.UpdateQuantity(ctx, p.ID, rng.Intn(6)-1)
		}

		seen := map[string]bool{}
		var sum int64
		count := 0
		for _, it := range c.Items() {
			require.False(t, seen[it.ProductID], "duplicate product %s", it.ProductID)
			require.GreaterOrEqual(t, it.Quantity, 1)
			seen[it.ProductID] = true
			sum += it.UnitPrice * int64(it.Quantity)
			count += it.Quantity
		}
		require.Equal(t, sum, c.TotalPrice())
		require.Equal(t, count, c.TotalItems())
	}
}

func TestOpen_RoundTripsSavedState(t *testing.T) {
	ctx := context.Background()
	c, storage := openEmpty(t)
	c.AddItem(ctx, spinach)
	c.AddItem(ctx, salmon)
	c.UpdateQuantity(ctx, salmon.ID, 3)

	reloaded := Open(ctx, storage, "session-1", zap.NewNop())
	assert.Equal(t, c.Items(), reloaded.Items())

	other := Open(ctx, storage, "session-2", zap.NewNop())
	assert.Empty(t, other.Items())
}

func TestOpen_CorruptedStateStartsEmpty(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(ctx, StorageKey("s"), []byte("{not json")))

	c := Open(ctx, storage, "s", zap.NewNop())
	assert.Empty(t, c.Items())
	assert.Zero(t, c.TotalPrice())
}

func TestPersistenceFailure_IsSwallowed(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{}

	c := Open(ctx, storage, "s", zap.NewNop())
	c.AddItem(ctx, spinach)
	c.AddItem(ctx, spinach)
	c.Clear(ctx)
	c.AddItem(ctx, salmon)

	assert.Equal(t, 4, storage.saves)
	require.Len(t, c.Items(), 1)
	assert.Equal(t, salmon.ID, c.Items()[0].ProductID)
}

func TestLastAdded_ExpiresAfterNoticeTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := Open(ctx, NewMemoryStorage(), "s", zap.NewNop(), WithClock(func() time.Time { return now }))

	_, ok := c.LastAdded()
	assert.False(t, ok)

	c.AddItem(ctx, salmon)
	notice, ok := c.LastAdded()
	require.True(t, ok)
	assert.Equal(t, "Salmon Fillet", notice.Name)
	assert.Equal(t, int64(75000), notice.Price)

	now = now.Add(NoticeTTL - time.Millisecond)
	_, ok = c.LastAdded()
	assert.True(t, ok)

	now = now.Add(time.Millisecond)
	_, ok = c.LastAdded()
	assert.False(t, ok)
	assert.Len(t, c.Items(), 1, "expiry does not touch cart contents")
}
