package models

// CartItem is one line of a session cart. Identity is ProductID.
// UnitPrice is in minor currency units.
type CartItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// Subtotal is UnitPrice x Quantity.
func (i CartItem) Subtotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}
