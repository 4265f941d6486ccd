package models

import (
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatuses lists every status in display order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseOrderStatus accepts the exact status names only.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Order is the model for the 'orders' table
type Order struct {
	ID             string      `json:"id" db:"id"`
	UserID         string      `json:"userId" db:"user_id"`
	Status         OrderStatus `json:"status" db:"status"`
	TotalAmount    int64       `json:"totalAmount" db:"total_amount"`
	IdempotencyKey *string     `json:"-" db:"idempotency_key"`
	NeedsAttention bool        `json:"needsAttention" db:"needs_attention"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt" db:"updated_at"`
}

// OrderItem is the model for the 'order_items' table.
// PriceAtPurchase is a snapshot and is never recomputed from the catalog.
type OrderItem struct {
	ID              int64  `json:"id" db:"id"`
	OrderID         string `json:"orderId" db:"order_id"`
	ProductID       string `json:"productId" db:"product_id"`
	Quantity        int    `json:"quantity" db:"quantity"`
	PriceAtPurchase int64  `json:"priceAtPurchase" db:"price_at_purchase"`

	// Joined from products for display; empty if the product row is gone.
	ProductName     string `json:"productName,omitempty"`
	ProductImageURL string `json:"productImageUrl,omitempty"`
}

// OrderShipping is the model for the 'order_shipping' table
type OrderShipping struct {
	OrderID    string `json:"orderId" db:"order_id"`
	Name       string `json:"name" db:"name"`
	Email      string `json:"email" db:"email"`
	Address    string `json:"address" db:"address"`
	City       string `json:"city" db:"city"`
	PostalCode string `json:"postalCode" db:"postal_code"`
}

// OrderDetails is the display payload for a single order.
type OrderDetails struct {
	Order    Order          `json:"order"`
	Items    []OrderItem    `json:"items"`
	Shipping *OrderShipping `json:"shipping"`
}

// OrderFilter narrows order listings. Empty fields are ignored.
type OrderFilter struct {
	UserID string
	Status OrderStatus
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalOrders   int64   `json:"totalOrders"`
	TotalRevenue  int64   `json:"totalRevenue"`
	TotalProducts int64   `json:"totalProducts"`
	PendingOrders int64   `json:"pendingOrders"`
	RecentOrders  []Order `json:"recentOrders"`
}
