package models

import (
	"time"
)

// NutritionInfo is stored as JSON on the product row.
type NutritionInfo struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Product is the model for the 'products' table.
type Product struct {
	ID            string         `json:"id" db:"id"`
	Name          string         `json:"name" db:"name"`
	Category      string         `json:"category" db:"category"`
	SKU           string         `json:"sku" db:"sku"`
	Description   string         `json:"description" db:"description"`
	Price         int64          `json:"price" db:"price"`
	StockQuantity int            `json:"stockQuantity" db:"stock_quantity"`
	ImageURL      string         `json:"imageUrl" db:"image_url"`
	NutritionInfo *NutritionInfo `json:"nutritionInfo,omitempty" db:"nutrition_info"`
	IsDeleted     bool           `json:"-" db:"is_deleted"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time      `json:"updatedAt" db:"updated_at"`
}

// ProductInput is the admin create/update payload.
type ProductInput struct {
	Name          string         `json:"name" binding:"required"`
	Category      string         `json:"category" binding:"required"`
	SKU           string         `json:"sku"`
	Description   string         `json:"description"`
	Price         int64          `json:"price" binding:"gte=0"`
	StockQuantity int            `json:"stockQuantity" binding:"gte=0"`
	ImageURL      string         `json:"imageUrl"`
	NutritionInfo *NutritionInfo `json:"nutritionInfo"`
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Offset is the row offset of the page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Pagination is the metadata returned with paged listings.
type Pagination struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
	HasPrevPage bool  `json:"hasPrevPage"`
	HasNextPage bool  `json:"hasNextPage"`
}

// NewPagination derives the metadata for page p out of total rows.
func NewPagination(p Page, total int64) Pagination {
	return Pagination{
		Total:       total,
		CurrentPage: p.Number,
		Limit:       p.Size,
		HasPrevPage: p.Number > 1,
		HasNextPage: int64(p.Number*p.Size) < total,
	}
}
