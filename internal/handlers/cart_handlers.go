package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/culinamarket/internal/cart"
	"github.com/01moynul/culinamarket/internal/catalog"
	"github.com/01moynul/culinamarket/internal/middleware"
	"github.com/01moynul/culinamarket/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- Cart Handlers (session scoped) ---
//

type CartResponse struct {
	Items      []models.CartItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	TotalPrice int64             `json:"totalPrice"`
	LastAdded  *cart.Notice      `json:"lastAdded,omitempty"`
}

func (h *Handlers) openCart(c *gin.Context) *cart.Cart {
	return cart.Open(c.Request.Context(), h.Carts, middleware.SessionID(c), h.Log)
}

func cartResponse(ct *cart.Cart) CartResponse {
	resp := CartResponse{
		Items:      ct.Items(),
		TotalItems: ct.TotalItems(),
		TotalPrice: ct.TotalPrice(),
	}
	if notice, ok := ct.LastAdded(); ok {
		resp.LastAdded = &notice
	}
	return resp
}

// GetCart handles GET /v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, cartResponse(h.openCart(c)))
}

type AddToCartInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"omitempty,gt=0,lte=999"`
}

// AddToCart handles POST /v1/cart/items
func (h *Handlers) AddToCart(c *gin.Context) {
	// 1. --- Bind input ---
	var input AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	// 2. --- Price comes from the catalog, never from the client ---
	product, err := h.Catalog.GetProduct(c.Request.Context(), input.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.serverError(c, "Failed to load product", err)
		return
	}

	// 3. --- Add, then bump to the requested quantity ---
	ctx := c.Request.Context()
	ct := h.openCart(c)
	ct.AddItem(ctx, cart.Product{ID: product.ID, Name: product.Name, Price: product.Price, ImageURL: product.ImageURL})
	if input.Quantity > 1 {
		for _, it := range ct.Items() {
			if it.ProductID == product.ID {
				ct.UpdateQuantity(ctx, product.ID, it.Quantity+input.Quantity-1)
				break
			}
		}
	}

	c.JSON(http.StatusCreated, cartResponse(ct))
}

type UpdateCartItemInput struct {
	Quantity int `json:"quantity" binding:"lte=999"`
}

// UpdateCartItem handles PUT /v1/cart/items/:product_id
// A quantity below 1 removes the line.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	var input UpdateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	ct := h.openCart(c)
	ct.UpdateQuantity(c.Request.Context(), c.Param("product_id"), input.Quantity)
	c.JSON(http.StatusOK, cartResponse(ct))
}

// DeleteCartItem handles DELETE /v1/cart/items/:product_id
func (h *Handlers) DeleteCartItem(c *gin.Context) {
	ct := h.openCart(c)
	ct.RemoveItem(c.Request.Context(), c.Param("product_id"))
	c.JSON(http.StatusOK, cartResponse(ct))
}

// ClearCart handles DELETE /v1/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	ct := h.openCart(c)
	ct.Clear(c.Request.Context())
	c.JSON(http.StatusOK, cartResponse(ct))
}
