package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/culinamarket/internal/middleware"
	"github.com/01moynul/culinamarket/internal/models"
	"github.com/01moynul/culinamarket/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//
// --- Address Book (login required) ---
//

// GetAddresses handles GET /v1/addresses
func (h *Handlers) GetAddresses(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	addresses, err := h.Addresses.List(c.Request.Context(), caller.UserID)
	if err != nil {
		h.serverError(c, "Failed to fetch addresses", err)
		return
	}
	c.JSON(http.StatusOK, addresses)
}

// CreateAddress handles POST /v1/addresses
func (h *Handlers) CreateAddress(c *gin.Context) {
	// 1. --- Bind input ---
	var input models.Address
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	// 2. --- Owner always comes from the token ---
	caller, _ := middleware.Identity(c)
	input.ID = uuid.NewString()
	input.UserID = caller.UserID

	// 3. --- Save (a new default clears the old one in the same transaction) ---
	if err := h.Addresses.Create(c.Request.Context(), &input); err != nil {
		h.serverError(c, "Failed to save address", err)
		return
	}
	c.JSON(http.StatusCreated, input)
}

// UpdateAddress handles PUT /v1/addresses/:id
func (h *Handlers) UpdateAddress(c *gin.Context) {
	var input models.Address
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	caller, _ := middleware.Identity(c)
	input.ID = c.Param("id")
	input.UserID = caller.UserID

	if err := h.Addresses.Update(c.Request.Context(), &input); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Address not found"})
			return
		}
		h.serverError(c, "Failed to update address", err)
		return
	}
	c.JSON(http.StatusOK, input)
}

// DeleteAddress handles DELETE /v1/addresses/:id
func (h *Handlers) DeleteAddress(c *gin.Context) {
	caller, _ := middleware.Identity(c)

	if err := h.Addresses.Delete(c.Request.Context(), caller.UserID, c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Address not found"})
			return
		}
		h.serverError(c, "Failed to delete address", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
}
