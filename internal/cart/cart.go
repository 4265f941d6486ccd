// Package cart holds the per-session shopping cart.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/01moynul/culinamarket/internal/models"
	"go.uber.org/zap"
)

const (
	// NoticeTTL is how long the "last added" notice stays visible.
	NoticeTTL = 3 * time.Second

	// MaxQuantity caps a single line. Larger requests are clamped.
	MaxQuantity = 999
)

// Product is what the caller knows about an item being added.
type Product struct {
	ID       string
	Name     string
	Price    int64
	ImageURL string
}

// Notice is the transient "just added" payload shown to the shopper.
type Notice struct {
	Name    string    `json:"name"`
	Price   int64     `json:"price"`
	AddedAt time.Time `json:"addedAt"`
}

// Cart is one session's ordered set of line items. Every mutation is
// written through to Storage; a failed write is logged and the in-memory
// state stays authoritative.
type Cart struct {
	mu      sync.Mutex
	key     string
	items   []models.CartItem
	notice  *Notice
	storage Storage
	log     *zap.Logger
	now     func() time.Time
}

type Option func(*Cart)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cart) { c.now = now }
}

// StorageKey is the storage key of a session's cart.
func StorageKey(sessionID string) string {
	return "cart:" + sessionID
}

// Open loads the cart of sessionID. Missing or unreadable state yields an
// empty cart; Open never fails.
func Open(ctx context.Context, storage Storage, sessionID string, log *zap.Logger, opts ...Option) *Cart {
	c := &Cart{
		key:     StorageKey(sessionID),
		items:   []models.CartItem{},
		storage: storage,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	data, err := storage.Load(ctx, c.key)
	if err != nil {
		if !errors.Is(err, ErrNoSavedCart) {
			c.log.Warn("cart load failed, starting empty", zap.String("key", c.key), zap.Error(err))
		}
		return c
	}

	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		c.log.Warn("cart state unreadable, starting empty", zap.String("key", c.key), zap.Error(err))
		return c
	}
	c.items = sanitize(items)
	return c
}

// sanitize drops entries that would break cart invariants.
func sanitize(items []models.CartItem) []models.CartItem {
	out := make([]models.CartItem, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Quantity < 1 || seen[it.ProductID] {
			continue
		}
		it.Quantity = min(it.Quantity, MaxQuantity)
		seen[it.ProductID] = true
		out = append(out, it)
	}
	return out
}

// AddItem increments an existing line or appends a new one with quantity 1.
// A line already at MaxQuantity is left as is.
func (c *Cart) AddItem(ctx context.Context, p Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(p.ID); i >= 0 {
		if c.items[i].Quantity < MaxQuantity {
			c.items[i].Quantity++
		}
	} else {
		c.items = append(c.items, models.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  1,
			ImageURL:  p.ImageURL,
		})
	}
	c.notice = &Notice{Name: p.Name, Price: p.Price, AddedAt: c.now()}
	c.persist(ctx)
}

// RemoveItem deletes the line for productID, if any.
func (c *Cart) RemoveItem(ctx context.Context, productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(ctx, productID)
}

// UpdateQuantity sets the quantity of an existing line, capped at
// MaxQuantity. n < 1 removes it.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < 1 {
		c.removeLocked(ctx, productID)
		return
	}
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.items[i].Quantity = min(n, MaxQuantity)
	c.persist(ctx)
}

func (c *Cart) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = []models.CartItem{}
	c.persist(ctx)
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]models.CartItem(nil), c.items...)
}

func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, it := range c.items {
		total += it.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for _, it := range c.items {
		total += it.Subtotal()
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items) == 0
}

// LastAdded returns the most recent add notice while it is still fresh.
func (c *Cart) LastAdded() (Notice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.notice == nil || c.now().Sub(c.notice.AddedAt) >= NoticeTTL {
		return Notice{}, false
	}
	return *c.notice, true
}

func (c *Cart) indexOf(productID string) int {
	for i, it := range c.items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeLocked(ctx context.Context, productID string) {
	i := c.indexOf(productID)
	if i < 0 {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.persist(ctx)
}

func (c *Cart) persist(ctx context.Context) {
	data, err := json.Marshal(c.items)
	if err != nil {
		c.log.Error("cart encode failed", zap.String("key", c.key), zap.Error(err))
		return
	}
	if err := c.storage.Save(ctx, c.key, data); err != nil {
		c.log.Error("cart save failed", zap.String("key", c.key), zap.Error(err))
	}
}
