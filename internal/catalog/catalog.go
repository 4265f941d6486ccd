// Package catalog is the read and admin-write path for products and recipes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/culinamarket/internal/models"
	"github.com/01moynul/culinamarket/internal/repository"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

var (
	ErrNotFound       = errors.New("catalog: not found")
	ErrDuplicateSlug  = errors.New("catalog: a recipe with this title already exists")
	ErrUnknownProduct = errors.New("catalog: ingredient product does not exist")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Service is the catalog surface used by handlers and the concierge.
type Service interface {
	// ListProducts returns the storefront products. When the store is
	// unreachable it returns SampleProducts with fallback set.
	ListProducts(ctx context.Context) (products []models.Product, fallback bool, err error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListRecipes(ctx context.Context, page models.Page) ([]models.Recipe, models.Pagination, error)
	GetRecipe(ctx context.Context, idOrSlug string) (*models.Recipe, error)

	AdminProducts(ctx context.Context, page models.Page) ([]models.Product, models.Pagination, error)
	CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	CreateRecipe(ctx context.Context, in models.RecipeInput) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, id string, in models.RecipeInput) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error
	AddIngredient(ctx context.Context, recipeID string, in models.IngredientInput) (*models.RecipeIngredient, error)
	RemoveIngredient(ctx context.Context, recipeID string, ingredientID int64) error

	SearchProducts(ctx context.Context, terms []string, limit int) ([]models.Product, error)
	SearchRecipes(ctx context.Context, terms []string, limit int) ([]models.Recipe, error)
	RecentRecipes(ctx context.Context, limit int) ([]models.Recipe, error)
	RecipesUsingProducts(ctx context.Context, productIDs []string, limit int) ([]models.Recipe, error)
	RecipeIngredients(ctx context.Context, recipeIDs []string) (map[string][]models.RecipeIngredient, error)
}

type service struct {
	products repository.ProductRepository
	recipes  repository.RecipeRepository
	log      *zap.Logger
	newID    func() string
}

func NewService(products repository.ProductRepository, recipes repository.RecipeRepository, log *zap.Logger) Service {
	return &service{
		products: products,
		recipes:  recipes,
		log:      log,
		newID:    uuid.NewString,
	}
}

func normalizePage(p models.Page) models.Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrDuplicateSlug
	}
	return err
}

func (s *service) ListProducts(ctx context.Context) ([]models.Product, bool, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		s.log.Warn("catalog: product store unavailable, serving sample products", zap.Error(err))
		return SampleProducts(), true, nil
	}
	return products, false, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

func (s *service) ListRecipes(ctx context.Context, page models.Page) ([]models.Recipe, models.Pagination, error) {
	page = normalizePage(page)
	recipes, total, err := s.recipes.List(ctx, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return recipes, models.NewPagination(page, total), nil
}

func (s *service) GetRecipe(ctx context.Context, idOrSlug string) (*models.Recipe, error) {
	rec, err := s.recipes.FindByID(ctx, idOrSlug)
	if err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

func (s *service) AdminProducts(ctx context.Context, page models.Page) ([]models.Product, models.Pagination, error) {
	page = normalizePage(page)
	products, total, err := s.products.ListPage(ctx, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return products, models.NewPagination(page, total), nil
}

func productFromInput(id string, in models.ProductInput) *models.Product {
	return &models.Product{
		ID:            id,
		Name:          strings.TrimSpace(in.Name),
		Category:      strings.TrimSpace(in.Category),
		SKU:           strings.TrimSpace(in.SKU),
		Description:   in.Description,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		ImageURL:      in.ImageURL,
		NutritionInfo: in.NutritionInfo,
	}
}

func (s *service) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	p := productFromInput(s.newID(), in)
	if err := s.products.Create(ctx, p); err != nil {
		return nil, translate(err)
	}
	s.log.Info("catalog: product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error) {
	p := productFromInput(id, in)
	if err := s.products.Update(ctx, p); err != nil {
		return nil, translate(err)
	}
	return s.GetProduct(ctx, id)
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.SoftDelete(ctx, id); err != nil {
		return translate(err)
	}
	s.log.Info("catalog: product deleted", zap.String("product_id", id))
	return nil
}

func recipeFromInput(id string, in models.RecipeInput) *models.Recipe {
	rec := &models.Recipe{
		ID:              id,
		Slug:            slug.Make(in.Title),
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Instructions:    in.Instructions,
		DifficultyLevel: in.DifficultyLevel,
		PrepTimeMinutes: in.PrepTimeMinutes,
		ImageURL:        in.ImageURL,
	}
	if rec.DifficultyLevel == "" {
		rec.DifficultyLevel = "Easy"
	}
	return rec
}

func (s *service) CreateRecipe(ctx context.Context, in models.RecipeInput) (*models.Recipe, error) {
	rec := recipeFromInput(s.newID(), in)
	if rec.Slug == "" {
		rec.Slug = rec.ID
	}
	if err := s.recipes.Create(ctx, rec); err != nil {
		return nil, translate(err)
	}
	s.log.Info("catalog: recipe created", zap.String("recipe_id", rec.ID), zap.String("slug", rec.Slug))
	return rec, nil
}

func (s *service) UpdateRecipe(ctx context.Context, id string, in models.RecipeInput) (*models.Recipe, error) {
	rec := recipeFromInput(id, in)
	if rec.Slug == "" {
		rec.Slug = rec.ID
	}
	if err := s.recipes.Update(ctx, rec); err != nil {
		return nil, translate(err)
	}
	return s.GetRecipe(ctx, id)
}

func (s *service) DeleteRecipe(ctx context.Context, id string) error {
	if err := s.recipes.Delete(ctx, id); err != nil {
		return translate(err)
	}
	s.log.Info("catalog: recipe deleted", zap.String("recipe_id", id))
	return nil
}

func (s *service) AddIngredient(ctx context.Context, recipeID string, in models.IngredientInput) (*models.RecipeIngredient, error) {
	// 1. --- Both ends of the link must exist ---
	if _, err := s.recipes.FindByID(ctx, recipeID); err != nil {
		return nil, translate(err)
	}
	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownProduct
		}
		return nil, err
	}

	// 2. --- Insert ---
	ing := &models.RecipeIngredient{
		RecipeID:         recipeID,
		ProductID:        product.ID,
		QuantityRequired: in.QuantityRequired,
		Unit:             in.Unit,
		Product:          *product,
	}
	if ing.QuantityRequired <= 0 {
		ing.QuantityRequired = 1
	}
	if ing.Unit == "" {
		ing.Unit = "pcs"
	}
	if err := s.recipes.AddIngredient(ctx, ing); err != nil {
		return nil, fmt.Errorf("add ingredient: %w", err)
	}
	return ing, nil
}

func (s *service) RemoveIngredient(ctx context.Context, recipeID string, ingredientID int64) error {
	return translate(s.recipes.RemoveIngredient(ctx, recipeID, ingredientID))
}

func (s *service) SearchProducts(ctx context.Context, terms []string, limit int) ([]models.Product, error) {
	return s.products.Search(ctx, terms, limit)
}

func (s *service) SearchRecipes(ctx context.Context, terms []string, limit int) ([]models.Recipe, error) {
	return s.recipes.Search(ctx, terms, limit)
}

func (s *service) RecentRecipes(ctx context.Context, limit int) ([]models.Recipe, error) {
	return s.recipes.Recent(ctx, limit)
}

func (s *service) RecipesUsingProducts(ctx context.Context, productIDs []string, limit int) ([]models.Recipe, error) {
	return s.recipes.UsingProducts(ctx, productIDs, limit)
}

func (s *service) RecipeIngredients(ctx context.Context, recipeIDs []string) (map[string][]models.RecipeIngredient, error) {
	return s.recipes.Ingredients(ctx, recipeIDs)
}
