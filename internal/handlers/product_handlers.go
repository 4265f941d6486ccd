package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/culinamarket/internal/catalog"
	"github.com/gin-gonic/gin"
)

// fallbackHeader is set when the listing is sample data.
const fallbackHeader = "X-Catalog-Fallback"

//
// --- Public Catalog Handlers ---
//

// GetProducts handles GET /v1/products
// When the store is down the sample catalog is served with a 200.
func (h *Handlers) GetProducts(c *gin.Context) {
	products, fallback, err := h.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.serverError(c, "Failed to fetch products", err)
		return
	}
	if fallback {
		c.Header(fallbackHeader, "true")
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /v1/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	product, err := h.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		h.serverError(c, "Failed to fetch product", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetRecipes handles GET /v1/recipes (and the admin listing).
func (h *Handlers) GetRecipes(c *gin.Context) {
	recipes, pagination, err := h.Catalog.ListRecipes(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		h.serverError(c, "Failed to fetch recipes", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes, "pagination": pagination})
}

// GetRecipe handles GET /v1/recipes/:id where :id is an id or a slug.
func (h *Handlers) GetRecipe(c *gin.Context) {
	recipe, err := h.Catalog.GetRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
			return
		}
		h.serverError(c, "Failed to fetch recipe", err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}
