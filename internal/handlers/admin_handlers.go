package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/01moynul/culinamarket/internal/catalog"
	"github.com/01moynul/culinamarket/internal/models"
	"github.com/gin-gonic/gin"
)

func (h *Handlers) respondCatalogError(c *gin.Context, what string, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	case errors.Is(err, catalog.ErrDuplicateSlug):
		c.JSON(http.StatusConflict, gin.H{"error": "A recipe with this title already exists"})
	case errors.Is(err, catalog.ErrUnknownProduct):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ingredient product does not exist"})
	default:
		h.serverError(c, "Failed to save "+what, err)
	}
}

//
// --- Admin: Product Management ---
//

// AdminGetProducts handles GET /v1/admin/products
func (h *Handlers) AdminGetProducts(c *gin.Context) {
	products, pagination, err := h.Catalog.AdminProducts(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		h.serverError(c, "Failed to fetch products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "pagination": pagination})
}

// CreateProduct handles POST /v1/admin/products
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	product, err := h.Catalog.CreateProduct(c.Request.Context(), input)
	if err != nil {
		h.respondCatalogError(c, "Product", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /v1/admin/products/:id
func (h *Handlers) UpdateProduct(c *gin.Context) {
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	product, err := h.Catalog.UpdateProduct(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.respondCatalogError(c, "Product", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /v1/admin/products/:id
// The row is soft deleted so past orders keep their product.
func (h *Handlers) DeleteProduct(c *gin.Context) {
	if err := h.Catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		h.respondCatalogError(c, "Product", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

//
// --- Admin: Recipe Management ---
//

// CreateRecipe handles POST /v1/admin/recipes
func (h *Handlers) CreateRecipe(c *gin.Context) {
	var input models.RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	recipe, err := h.Catalog.CreateRecipe(c.Request.Context(), input)
	if err != nil {
		h.respondCatalogError(c, "Recipe", err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe handles PUT /v1/admin/recipes/:id
func (h *Handlers) UpdateRecipe(c *gin.Context) {
	var input models.RecipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	recipe, err := h.Catalog.UpdateRecipe(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.respondCatalogError(c, "Recipe", err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe handles DELETE /v1/admin/recipes/:id
func (h *Handlers) DeleteRecipe(c *gin.Context) {
	if err := h.Catalog.DeleteRecipe(c.Request.Context(), c.Param("id")); err != nil {
		h.respondCatalogError(c, "Recipe", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted"})
}

// AddRecipeIngredient handles POST /v1/admin/recipes/:id/ingredients
func (h *Handlers) AddRecipeIngredient(c *gin.Context) {
	var input models.IngredientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	ingredient, err := h.Catalog.AddIngredient(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.respondCatalogError(c, "Recipe", err)
		return
	}
	c.JSON(http.StatusCreated, ingredient)
}

// RemoveRecipeIngredient handles DELETE /v1/admin/recipes/:id/ingredients/:ingredient_id
func (h *Handlers) RemoveRecipeIngredient(c *gin.Context) {
	ingredientID, err := strconv.ParseInt(c.Param("ingredient_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ingredient ID"})
		return
	}

	if err := h.Catalog.RemoveIngredient(c.Request.Context(), c.Param("id"), ingredientID); err != nil {
		h.respondCatalogError(c, "Ingredient", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ingredient removed"})
}

//
// --- Admin: Users ---
//

// GetUsers handles GET /v1/admin/users
func (h *Handlers) GetUsers(c *gin.Context) {
	users, err := h.Users.ListUsers(c.Request.Context())
	if err != nil {
		h.serverError(c, "Failed to fetch users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}
