package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/01moynul/culinamarket/internal/checkout"
	"github.com/01moynul/culinamarket/internal/middleware"
	"github.com/01moynul/culinamarket/internal/orders"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const idempotencyHeader = "Idempotency-Key"

// Checkout handles POST /v1/checkout
// Guests (no bearer token) get a confirmation without a stored order.
func (h *Handlers) Checkout(c *gin.Context) {
	// 1. --- Bind the form; field rules are checked by the orchestrator ---
	var form checkout.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	// 2. --- Who is ordering ---
	sessionID := middleware.SessionID(c)
	req := checkout.Request{
		SessionID:      sessionID,
		IdempotencyKey: strings.TrimSpace(c.GetHeader(idempotencyHeader)),
		Form:           form,
	}
	if id, ok := middleware.Identity(c); ok {
		req.OwnerID = id.UserID
	}

	// 3. --- Submit ---
	res, err := h.Orchestrator.Submit(c.Request.Context(), req)
	switch {
	case errors.Is(err, checkout.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please correct the highlighted fields", "fields": res.FieldErrors})
		return
	case errors.Is(err, checkout.ErrIdempotencyKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key must be at most 128 characters"})
		return
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
		return
	case errors.Is(err, checkout.ErrSubmitInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Your order is already being placed"})
		return
	case err != nil:
		h.serverError(c, "Failed to place order. Please try again.", err)
		return
	}

	// 4. --- Respond ---
	if res.NeedsAttention {
		h.Log.Warn("order placed with incomplete records", zap.String("order_id", res.Order.ID))
	}
	status := http.StatusCreated
	if res.Duplicate || res.Guest {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

func (h *Handlers) ordersFilter(c *gin.Context) orders.Filter {
	return orders.Filter{Status: c.Query("status"), OwnerID: c.Query("userId")}
}

func (h *Handlers) respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, orders.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order status"})
	case errors.Is(err, orders.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
	default:
		h.serverError(c, "Failed to load orders", err)
	}
}

// GetMyOrders handles GET /v1/orders (and GET /v1/admin/orders for staff).
func (h *Handlers) GetMyOrders(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	list, pagination, err := h.Orders.List(c.Request.Context(), caller, h.ordersFilter(c), pageFromQuery(c))
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list, "pagination": pagination})
}

// GetOrderDetails handles GET /v1/orders/:id
// Someone else's order answers exactly like a missing one.
func (h *Handlers) GetOrderDetails(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	details, err := h.Orders.Get(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

type UpdateOrderStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus handles PATCH /v1/admin/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var input UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	caller, _ := middleware.Identity(c)
	if err := h.Orders.UpdateStatus(c.Request.Context(), caller, c.Param("id"), input.Status); err != nil {
		h.respondOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "status": input.Status})
}
