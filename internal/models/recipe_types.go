package models

import "time"

// Recipe is the model for the 'recipes' table.
type Recipe struct {
	ID              string    `json:"id" db:"id"`
	Slug            string    `json:"slug" db:"slug"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	Instructions    string    `json:"instructions" db:"instructions"`
	DifficultyLevel string    `json:"difficultyLevel" db:"difficulty_level"`
	PrepTimeMinutes int       `json:"prepTimeMinutes" db:"prep_time_minutes"`
	ImageURL        string    `json:"imageUrl" db:"image_url"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`

	Ingredients     []RecipeIngredient `json:"ingredients,omitempty"`
	IngredientCount int                `json:"ingredientCount"`
}

// RecipeIngredient links a recipe to a catalog product.
type RecipeIngredient struct {
	ID               int64   `json:"id" db:"id"`
	RecipeID         string  `json:"recipeId" db:"recipe_id"`
	ProductID        string  `json:"productId" db:"product_id"`
	QuantityRequired float64 `json:"quantityRequired" db:"quantity_required"`
	Unit             string  `json:"unit" db:"unit"`
	Product          Product `json:"product"`
}

// RecipeInput is the admin create/update payload.
type RecipeInput struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	Instructions    string `json:"instructions"`
	DifficultyLevel string `json:"difficultyLevel"`
	PrepTimeMinutes int    `json:"prepTimeMinutes" binding:"gte=0"`
	ImageURL        string `json:"imageUrl"`
}

// IngredientInput adds a product to a recipe.
type IngredientInput struct {
	ProductID        string  `json:"productId" binding:"required"`
	QuantityRequired float64 `json:"quantityRequired" binding:"gte=0"`
	Unit             string  `json:"unit"`
}
