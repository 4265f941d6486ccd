package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/01moynul/culinamarket/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

type CachedServiceSuite struct {
	suite.Suite

	ctx       context.Context
	container *tcredis.RedisContainer
	client    *redis.Client

	products *memProducts
	recipes  *memRecipes
	svc      Service
}

func (s *CachedServiceSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcredis.Run(s.ctx, "redis:7-alpine")
	s.Require().NoError(err, "failed to start redis container")
	s.container = container

	uri, err := container.ConnectionString(s.ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(uri)
	s.Require().NoError(err)
	s.client = redis.NewClient(opts)
}

func (s *CachedServiceSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
	s.Require().NoError(testcontainers.TerminateContainer(s.container))
}

func (s *CachedServiceSuite) SetupTest() {
	s.Require().NoError(s.client.FlushDB(s.ctx).Err())
	s.products = newMemProducts(garlic)
	s.recipes = newMemRecipes()
	s.svc = NewCachedService(NewService(s.products, s.recipes, zap.NewNop()), s.client, time.Minute, zap.NewNop())
}

func (s *CachedServiceSuite) TestGetProduct_ServesFromCache() {
	p, err := s.svc.GetProduct(s.ctx, garlic.ID)
	s.Require().NoError(err)
	s.Equal(garlic.Name, p.Name)

	val, err := s.client.Get(s.ctx, productKeyPrefix+garlic.ID).Result()
	s.Require().NoError(err)
	s.Contains(val, "Fresh Garlic Bulb")

	// a change behind the cache's back is not visible until invalidation
	s.products.byID[garlic.ID].Name = "Changed"
	p, err = s.svc.GetProduct(s.ctx, garlic.ID)
	s.Require().NoError(err)
	s.Equal(garlic.Name, p.Name)
}

func (s *CachedServiceSuite) TestUpdateProduct_Invalidates() {
	_, _, err := s.svc.ListProducts(s.ctx)
	s.Require().NoError(err)
	_, err = s.svc.GetProduct(s.ctx, garlic.ID)
	s.Require().NoError(err)

	_, err = s.svc.UpdateProduct(s.ctx, garlic.ID, models.ProductInput{Name: "Black Garlic", Category: "Vegetables", Price: 9000})
	s.Require().NoError(err)

	n, err := s.client.Exists(s.ctx, productsKey, productKeyPrefix+garlic.ID).Result()
	s.Require().NoError(err)
	s.Zero(n)

	p, err := s.svc.GetProduct(s.ctx, garlic.ID)
	s.Require().NoError(err)
	s.Equal("Black Garlic", p.Name)
}

func (s *CachedServiceSuite) TestListProducts_DoesNotCacheFallback() {
	s.products.listErr = context.DeadlineExceeded

	_, fallback, err := s.svc.ListProducts(s.ctx)
	s.Require().NoError(err)
	s.True(fallback)

	n, err := s.client.Exists(s.ctx, productsKey).Result()
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *CachedServiceSuite) TestRecipe_SlugEntryDroppedOnIngredientChange() {
	rec, err := s.svc.CreateRecipe(s.ctx, models.RecipeInput{Title: "Garlic Soup"})
	s.Require().NoError(err)

	cached, err := s.svc.GetRecipe(s.ctx, rec.Slug)
	s.Require().NoError(err)
	s.Empty(cached.Ingredients)

	_, err = s.svc.AddIngredient(s.ctx, rec.ID, models.IngredientInput{ProductID: garlic.ID, QuantityRequired: 2, Unit: "cloves"})
	s.Require().NoError(err)

	fresh, err := s.svc.GetRecipe(s.ctx, rec.Slug)
	s.Require().NoError(err)
	s.Len(fresh.Ingredients, 1)
}

func TestCachedServiceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration tests in short mode")
	}
	suite.Run(t, new(CachedServiceSuite))
}
