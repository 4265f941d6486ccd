package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/01moynul/culinamarket/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	productsKey      = "catalog:products"
	productKeyPrefix = "catalog:product:"
	recipeKeyPrefix  = "catalog:recipe:"
)

// cachedService is a read-through Redis decorator over Service. Admin
// writes drop the affected keys; everything else passes through.
type cachedService struct {
	Service
	redisClient *redis.Client
	cacheTTL    time.Duration
	log         *zap.Logger
}

func NewCachedService(next Service, redisClient *redis.Client, ttl time.Duration, log *zap.Logger) Service {
	return &cachedService{
		Service:     next,
		redisClient: redisClient,
		cacheTTL:    ttl,
		log:         log,
	}
}

func (s *cachedService) get(ctx context.Context, key string, dest any) bool {
	val, err := s.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		s.log.Warn("catalog: dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		s.redisClient.Del(ctx, key)
		return false
	}
	return true
}

func (s *cachedService) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.log.Debug("catalog: cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *cachedService) del(ctx context.Context, keys ...string) {
	if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn("catalog: cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *cachedService) ListProducts(ctx context.Context) ([]models.Product, bool, error) {
	var products []models.Product
	if s.get(ctx, productsKey, &products) {
		return products, false, nil
	}

	products, fallback, err := s.Service.ListProducts(ctx)
	if err != nil {
		return nil, false, err
	}
	if !fallback {
		s.set(ctx, productsKey, products)
	}
	return products, fallback, nil
}

func (s *cachedService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if s.get(ctx, productKeyPrefix+id, &product) {
		return &product, nil
	}

	p, err := s.Service.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.set(ctx, productKeyPrefix+id, p)
	return p, nil
}

func (s *cachedService) GetRecipe(ctx context.Context, idOrSlug string) (*models.Recipe, error) {
	var recipe models.Recipe
	if s.get(ctx, recipeKeyPrefix+idOrSlug, &recipe) {
		return &recipe, nil
	}

	rec, err := s.Service.GetRecipe(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	s.set(ctx, recipeKeyPrefix+idOrSlug, rec)
	return rec, nil
}

func (s *cachedService) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	p, err := s.Service.CreateProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	s.del(ctx, productsKey)
	return p, nil
}

func (s *cachedService) UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error) {
	p, err := s.Service.UpdateProduct(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.del(ctx, productsKey, productKeyPrefix+id)
	return p, nil
}

func (s *cachedService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.Service.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.del(ctx, productsKey, productKeyPrefix+id)
	return nil
}

// recipeKeys returns the cache keys a recipe may be stored under.
func recipeKeys(rec *models.Recipe) []string {
	return []string{recipeKeyPrefix + rec.ID, recipeKeyPrefix + rec.Slug}
}

// forgetRecipe drops both the id and the current slug entry of a recipe.
func (s *cachedService) forgetRecipe(ctx context.Context, id string) {
	keys := []string{recipeKeyPrefix + id}
	if rec, err := s.Service.GetRecipe(ctx, id); err == nil {
		keys = recipeKeys(rec)
	}
	s.del(ctx, keys...)
}

func (s *cachedService) UpdateRecipe(ctx context.Context, id string, in models.RecipeInput) (*models.Recipe, error) {
	s.forgetRecipe(ctx, id)
	rec, err := s.Service.UpdateRecipe(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.del(ctx, recipeKeys(rec)...)
	return rec, nil
}

func (s *cachedService) DeleteRecipe(ctx context.Context, id string) error {
	s.forgetRecipe(ctx, id)
	return s.Service.DeleteRecipe(ctx, id)
}

func (s *cachedService) AddIngredient(ctx context.Context, recipeID string, in models.IngredientInput) (*models.RecipeIngredient, error) {
	ing, err := s.Service.AddIngredient(ctx, recipeID, in)
	if err != nil {
		return nil, err
	}
	s.forgetRecipe(ctx, recipeID)
	return ing, nil
}

func (s *cachedService) RemoveIngredient(ctx context.Context, recipeID string, ingredientID int64) error {
	if err := s.Service.RemoveIngredient(ctx, recipeID, ingredientID); err != nil {
		return err
	}
	s.forgetRecipe(ctx, recipeID)
	return nil
}
