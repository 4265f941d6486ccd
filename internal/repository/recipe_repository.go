package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/culinamarket/internal/models"
)

type RecipeRepository interface {
	List(ctx context.Context, page models.Page) ([]models.Recipe, int64, error)
	FindByID(ctx context.Context, idOrSlug string) (*models.Recipe, error)
	Search(ctx context.Context, terms []string, limit int) ([]models.Recipe, error)
	Recent(ctx context.Context, limit int) ([]models.Recipe, error)
	UsingProducts(ctx context.Context, productIDs []string, limit int) ([]models.Recipe, error)
	Ingredients(ctx context.Context, recipeIDs []string) (map[string][]models.RecipeIngredient, error)

	Create(ctx context.Context, rec *models.Recipe) error
	Update(ctx context.Context, rec *models.Recipe) error
	Delete(ctx context.Context, id string) error
	AddIngredient(ctx context.Context, ing *models.RecipeIngredient) error
	RemoveIngredient(ctx context.Context, recipeID string, ingredientID int64) error
}

type recipeRepository struct {
	db *sql.DB
}

func NewRecipeRepository(db *sql.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

const recipeColumns = `r.id, r.slug, r.title, COALESCE(r.description, ''), COALESCE(r.instructions, ''),
	r.difficulty_level, r.prep_time_minutes, r.image_url, r.created_at, r.updated_at,
	(SELECT COUNT(*) FROM recipe_ingredients ri WHERE ri.recipe_id = r.id)`

// ingredientLinkLimit bounds how many ingredient links are scanned when
// looking for recipes that use a set of products.
const ingredientLinkLimit = 20

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var rec models.Recipe
	if err := row.Scan(&rec.ID, &rec.Slug, &rec.Title, &rec.Description, &rec.Instructions,
		&rec.DifficultyLevel, &rec.PrepTimeMinutes, &rec.ImageURL, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.IngredientCount); err != nil {
		return nil, err
	}
	return &rec, nil
}

func collectRecipes(rows *sql.Rows) ([]models.Recipe, error) {
	defer rows.Close()

	recipes := []models.Recipe{}
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *rec)
	}
	return recipes, rows.Err()
}

func (r *recipeRepository) List(ctx context.Context, page models.Page) ([]models.Recipe, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM recipes").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+recipeColumns+" FROM recipes r ORDER BY r.created_at DESC, r.id LIMIT ? OFFSET ?",
		page.Size, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	recipes, err := collectRecipes(rows)
	return recipes, total, err
}

// FindByID loads a recipe by id or slug, with its ingredients.
func (r *recipeRepository) FindByID(ctx context.Context, idOrSlug string) (*models.Recipe, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+recipeColumns+" FROM recipes r WHERE r.id = ? OR r.slug = ? LIMIT 1", idOrSlug, idOrSlug)
	rec, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find recipe: %w", err)
	}

	ingredients, err := r.Ingredients(ctx, []string{rec.ID})
	if err != nil {
		return nil, err
	}
	rec.Ingredients = ingredients[rec.ID]
	return rec, nil
}

// Search matches any term against title or description.
func (r *recipeRepository) Search(ctx context.Context, terms []string, limit int) ([]models.Recipe, error) {
	if len(terms) == 0 {
		return []models.Recipe{}, nil
	}

	var b strings.Builder
	b.WriteString("SELECT " + recipeColumns + " FROM recipes r WHERE ")
	args := anyLike(&b, []string{"r.title", "r.description"}, terms)
	b.WriteString(" ORDER BY r.created_at DESC LIMIT ?")
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}
	return collectRecipes(rows)
}

func (r *recipeRepository) Recent(ctx context.Context, limit int) ([]models.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+recipeColumns+" FROM recipes r ORDER BY r.created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("recent recipes: %w", err)
	}
	return collectRecipes(rows)
}

// UsingProducts finds recipes that list any of productIDs as an ingredient.
func (r *recipeRepository) UsingProducts(ctx context.Context, productIDs []string, limit int) ([]models.Recipe, error) {
	if len(productIDs) == 0 {
		return []models.Recipe{}, nil
	}

	linkQuery := "SELECT recipe_id FROM recipe_ingredients WHERE product_id IN (" + placeholders(len(productIDs)) + ") LIMIT ?"
	rows, err := r.db.QueryContext(ctx, linkQuery, append(stringArgs(productIDs), ingredientLinkLimit)...)
	if err != nil {
		return nil, fmt.Errorf("query ingredient links: %w", err)
	}

	seen := make(map[string]bool)
	var recipeIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan ingredient link: %w", err)
		}
		if !seen[id] {
			seen[id] = true
			recipeIDs = append(recipeIDs, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(recipeIDs) == 0 {
		return []models.Recipe{}, nil
	}

	query := "SELECT " + recipeColumns + " FROM recipes r WHERE r.id IN (" + placeholders(len(recipeIDs)) + ") ORDER BY r.created_at DESC LIMIT ?"
	recipeRows, err := r.db.QueryContext(ctx, query, append(stringArgs(recipeIDs), limit)...)
	if err != nil {
		return nil, fmt.Errorf("query recipes by id: %w", err)
	}
	return collectRecipes(recipeRows)
}

// Ingredients returns the ingredient links of each recipe keyed by recipe ID,
// each joined with its product. Links to soft-deleted products are skipped.
func (r *recipeRepository) Ingredients(ctx context.Context, recipeIDs []string) (map[string][]models.RecipeIngredient, error) {
	out := make(map[string][]models.RecipeIngredient, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}

	query := `
		SELECT ri.id, ri.recipe_id, ri.product_id, ri.quantity_required, ri.unit,
		       p.id, p.name, p.category, p.sku, COALESCE(p.description, ''), p.price, p.stock_quantity,
		       p.image_url, p.nutrition_info, p.is_deleted, p.created_at, p.updated_at
		FROM recipe_ingredients ri
		JOIN products p ON p.id = ri.product_id AND p.is_deleted = FALSE
		WHERE ri.recipe_id IN (` + placeholders(len(recipeIDs)) + `)
		ORDER BY ri.id`

	rows, err := r.db.QueryContext(ctx, query, stringArgs(recipeIDs)...)
	if err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ing models.RecipeIngredient
		p, err := scanProduct(prefixScanner{row: rows, prefix: []any{&ing.ID, &ing.RecipeID, &ing.ProductID, &ing.QuantityRequired, &ing.Unit}})
		if err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		ing.Product = *p
		out[ing.RecipeID] = append(out[ing.RecipeID], ing)
	}
	return out, rows.Err()
}

// prefixScanner lets scanProduct read rows that carry extra leading columns.
type prefixScanner struct {
	row    rowScanner
	prefix []any
}

func (s prefixScanner) Scan(dest ...any) error {
	return s.row.Scan(append(append([]any{}, s.prefix...), dest...)...)
}

func (r *recipeRepository) Create(ctx context.Context, rec *models.Recipe) error {
	now := time.Now().UTC().Truncate(time.Second)
	rec.CreatedAt, rec.UpdatedAt = now, now

	query := `
		INSERT INTO recipes (id, slug, title, description, instructions, difficulty_level, prep_time_minutes, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, rec.ID, rec.Slug, rec.Title, rec.Description, rec.Instructions,
		rec.DifficultyLevel, rec.PrepTimeMinutes, rec.ImageURL, rec.CreatedAt, rec.UpdatedAt); err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert recipe: %w", err)
	}
	return nil
}

func (r *recipeRepository) Update(ctx context.Context, rec *models.Recipe) error {
	var exists int
	if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM recipes WHERE id = ?", rec.ID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("find recipe: %w", err)
	}

	rec.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	query := `
		UPDATE recipes
		SET slug = ?, title = ?, description = ?, instructions = ?, difficulty_level = ?, prep_time_minutes = ?, image_url = ?, updated_at = ?
		WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, rec.Slug, rec.Title, rec.Description, rec.Instructions,
		rec.DifficultyLevel, rec.PrepTimeMinutes, rec.ImageURL, rec.UpdatedAt, rec.ID); err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update recipe: %w", err)
	}
	return nil
}

// Delete removes the recipe's ingredient links first, then the recipe.
func (r *recipeRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE recipe_id = ?", id); err != nil {
		return fmt.Errorf("delete recipe ingredients: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM recipes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (r *recipeRepository) AddIngredient(ctx context.Context, ing *models.RecipeIngredient) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO recipe_ingredients (recipe_id, product_id, quantity_required, unit) VALUES (?, ?, ?, ?)",
		ing.RecipeID, ing.ProductID, ing.QuantityRequired, ing.Unit)
	if err != nil {
		return fmt.Errorf("insert ingredient: %w", err)
	}
	ing.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert ingredient: %w", err)
	}
	return nil
}

func (r *recipeRepository) RemoveIngredient(ctx context.Context, recipeID string, ingredientID int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM recipe_ingredients WHERE id = ? AND recipe_id = ?", ingredientID, recipeID)
	if err != nil {
		return fmt.Errorf("delete ingredient: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
