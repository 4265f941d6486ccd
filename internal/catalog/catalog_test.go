package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/01moynul/culinamarket/internal/models"
	"github.com/01moynul/culinamarket/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memProducts struct {
	byID    map[string]*models.Product
	listErr error
}

func newMemProducts(ps ...models.Product) *memProducts {
	m := &memProducts{byID: map[string]*models.Product{}}
	for i := range ps {
		p := ps[i]
		m.byID[p.ID] = &p
	}
	return m
}

func (m *memProducts) List(context.Context) ([]models.Product, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Product
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memProducts) ListPage(ctx context.Context, _ models.Page) ([]models.Product, int64, error) {
	out, err := m.List(ctx)
	return out, int64(len(out)), err
}

func (m *memProducts) FindByID(_ context.Context, id string) (*models.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) Search(context.Context, []string, int) ([]models.Product, error) {
	return nil, nil
}

func (m *memProducts) Create(_ context.Context, p *models.Product) error {
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProducts) Update(_ context.Context, p *models.Product) error {
	if _, ok := m.byID[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memProducts) SoftDelete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memRecipes struct {
	byID        map[string]*models.Recipe
	ingredients []models.RecipeIngredient
	nextIngID   int64
}

func newMemRecipes() *memRecipes {
	return &memRecipes{byID: map[string]*models.Recipe{}}
}

func (m *memRecipes) List(context.Context, models.Page) ([]models.Recipe, int64, error) {
	var out []models.Recipe
	for _, r := range m.byID {
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (m *memRecipes) FindByID(_ context.Context, idOrSlug string) (*models.Recipe, error) {
	for _, r := range m.byID {
		if r.ID == idOrSlug || r.Slug == idOrSlug {
			cp := *r
			for _, ing := range m.ingredients {
				if ing.RecipeID == r.ID {
					cp.Ingredients = append(cp.Ingredients, ing)
				}
			}
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memRecipes) Search(context.Context, []string, int) ([]models.Recipe, error) { return nil, nil }
func (m *memRecipes) Recent(context.Context, int) ([]models.Recipe, error) { return nil, nil }
func (m *memRecipes) UsingProducts(context.Context, []string, int) ([]models.Recipe, error) {
	return nil, nil
}
func (m *memRecipes) Ingredients(context.Context, []string) (map[string][]models.RecipeIngredient, error) {
	return nil, nil
}

func (m *memRecipes) slugTaken(rec *models.Recipe) bool {
	for _, r := range m.byID {
		if r.Slug == rec.Slug && r.ID != rec.ID {
			return true
		}
	}
	return false
}

func (m *memRecipes) Create(_ context.Context, rec *models.Recipe) error {
	if m.slugTaken(rec) {
		return repository.ErrDuplicate
	}
	cp := *rec
	m.byID[rec.ID] = &cp
	return nil
}

func (m *memRecipes) Update(_ context.Context, rec *models.Recipe) error {
	if _, ok := m.byID[rec.ID]; !ok {
		return repository.ErrNotFound
	}
	if m.slugTaken(rec) {
		return repository.ErrDuplicate
	}
	cp := *rec
	m.byID[rec.ID] = &cp
	return nil
}

func (m *memRecipes) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memRecipes) AddIngredient(_ context.Context, ing *models.RecipeIngredient) error {
	m.nextIngID++
	ing.ID = m.nextIngID
	m.ingredients = append(m.ingredients, *ing)
	return nil
}

func (m *memRecipes) RemoveIngredient(_ context.Context, recipeID string, ingredientID int64) error {
	for i, ing := range m.ingredients {
		if ing.ID == ingredientID && ing.RecipeID == recipeID {
			m.ingredients = append(m.ingredients[:i], m.ingredients[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

var garlic = models.Product{ID: "p-garlic", Name: "Fresh Garlic Bulb", Category: "Vegetables", Price: 5000}

func TestListProducts_FallsBackToSamples(t *testing.T) {
	products := newMemProducts()
	products.listErr = errors.New("dial tcp: connection refused")
	svc := NewService(products, newMemRecipes(), zap.NewNop())

	list, fallback, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.True(t, fallback)
	require.Len(t, list, 12)
	assert.Equal(t, "Fresh Organic Spinach", list[0].Name)
	assert.Equal(t, int64(120000), list[7].Price)
}

func TestListProducts_FromStore(t *testing.T) {
	svc := NewService(newMemProducts(garlic), newMemRecipes(), zap.NewNop())

	list, fallback, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.False(t, fallback)
	assert.Equal(t, []models.Product{garlic}, list)
}

func TestGetProduct_NotFound(t *testing.T) {
	svc := NewService(newMemProducts(), newMemRecipes(), zap.NewNop())

	_, err := svc.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRecipe_SlugAndDefaults(t *testing.T) {
	recipes := newMemRecipes()
	svc := NewService(newMemProducts(), recipes, zap.NewNop())
	ctx := context.Background()

	rec, err := svc.CreateRecipe(ctx, models.RecipeInput{Title: "  Nasi Goreng Kampung ", PrepTimeMinutes: 20})
	require.NoError(t, err)
	assert.Equal(t, "nasi-goreng-kampung", rec.Slug)
	assert.Equal(t, "Nasi Goreng Kampung", rec.Title)
	assert.Equal(t, "Easy", rec.DifficultyLevel)

	_, err = svc.CreateRecipe(ctx, models.RecipeInput{Title: "Nasi Goreng Kampung"})
	assert.ErrorIs(t, err, ErrDuplicateSlug)

	got, err := svc.GetRecipe(ctx, "nasi-goreng-kampung")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}

func TestAddIngredient(t *testing.T) {
	recipes := newMemRecipes()
	svc := NewService(newMemProducts(garlic), recipes, zap.NewNop())
	ctx := context.Background()

	rec, err := svc.CreateRecipe(ctx, models.RecipeInput{Title: "Garlic Bread"})
	require.NoError(t, err)

	_, err = svc.AddIngredient(ctx, rec.ID, models.IngredientInput{ProductID: "ghost"})
	assert.ErrorIs(t, err, ErrUnknownProduct)

	_, err = svc.AddIngredient(ctx, "no-such-recipe", models.IngredientInput{ProductID: garlic.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	ing, err := svc.AddIngredient(ctx, rec.ID, models.IngredientInput{ProductID: garlic.ID})
	require.NoError(t, err)
	assert.Equal(t, 1.0, ing.QuantityRequired)
	assert.Equal(t, "pcs", ing.Unit)
	assert.Equal(t, garlic.Name, ing.Product.Name)

	require.NoError(t, svc.RemoveIngredient(ctx, rec.ID, ing.ID))
	assert.ErrorIs(t, svc.RemoveIngredient(ctx, rec.ID, ing.ID), ErrNotFound)
}

func TestListRecipes_NormalizesPage(t *testing.T) {
	svc := NewService(newMemProducts(), newMemRecipes(), zap.NewNop())

	_, p, err := svc.ListRecipes(context.Background(), models.Page{Number: 0, Size: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentPage)
	assert.Equal(t, MaxPageSize, p.Limit)
	assert.False(t, p.HasPrevPage)
}
