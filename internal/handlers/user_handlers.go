package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/01moynul/culinamarket/internal/middleware"
	"github.com/01moynul/culinamarket/internal/models"
	"github.com/01moynul/culinamarket/internal/repository"
	"github.com/gin-gonic/gin"
)

// --- User Profile ---

// GetProfile handles GET /v1/profile
// The first read creates the profile from the token's name.
func (h *Handlers) GetProfile(c *gin.Context) {
	caller, _ := middleware.Identity(c)
	ctx := c.Request.Context()

	// 1. --- Existing profile ---
	profile, err := h.Profiles.Get(ctx, caller.UserID)
	if err == nil {
		c.JSON(http.StatusOK, profile)
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		h.serverError(c, "Failed to fetch profile", err)
		return
	}

	// 2. --- First visit: seed from the auth metadata ---
	profile = &models.Profile{ID: caller.UserID, FullName: caller.Name}
	if err := h.Profiles.Upsert(ctx, profile); err != nil {
		h.serverError(c, "Failed to create profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type UpdateProfileInput struct {
	FullName    string `json:"fullName" binding:"required"`
	PhoneNumber string `json:"phoneNumber"`
}

// UpdateProfile handles PUT /v1/profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	caller, _ := middleware.Identity(c)
	profile := &models.Profile{
		ID:          caller.UserID,
		FullName:    strings.TrimSpace(input.FullName),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
	}
	if err := h.Profiles.Upsert(c.Request.Context(), profile); err != nil {
		h.serverError(c, "Failed to update profile", err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
