package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/01moynul/culinamarket/internal/database"
	"github.com/01moynul/culinamarket/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"go.uber.org/zap"
)

type RepositorySuite struct {
	suite.Suite
	Ctx       context.Context
	Container *mysql.MySQLContainer
	DB        *sql.DB

	orders    OrderRepository
	addresses AddressRepository
	products  ProductRepository
	recipes   RecipeRepository
	profiles  ProfileRepository
	users     UserRepository
}

func TestRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MySQL integration tests in short mode")
	}
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupSuite() {
	s.Ctx = context.Background()

	var err error
	s.Container, err = mysql.Run(s.Ctx,
		"mysql:8.0.36",
		mysql.WithDatabase("culinamarket_test"),
		mysql.WithUsername("root"),
		mysql.WithPassword("password"),
	)
	s.Require().NoError(err)

	dsn, err := s.Container.ConnectionString(s.Ctx, "parseTime=true", "multiStatements=true")
	s.Require().NoError(err)

	s.DB, err = sql.Open("mysql", dsn)
	s.Require().NoError(err)
	s.Require().NoError(s.DB.PingContext(s.Ctx))
	s.Require().NoError(database.Migrate(s.DB, zap.NewNop()))

	s.orders = NewOrderRepository(s.DB)
	s.addresses = NewAddressRepository(s.DB)
	s.products = NewProductRepository(s.DB)
	s.recipes = NewRecipeRepository(s.DB)
	s.profiles = NewProfileRepository(s.DB)
	s.users = NewUserRepository(s.DB)
}

func (s *RepositorySuite) TearDownSuite() {
	if s.DB != nil {
		s.DB.Close()
	}
	if s.Container != nil {
		if err := s.Container.Terminate(s.Ctx); err != nil {
			s.T().Logf("failed to terminate mysql container: %v", err)
		}
	}
}

func (s *RepositorySuite) TearDownTest() {
	for _, table := range []string{
		"order_shipping", "order_items", "orders", "recipe_ingredients",
		"recipes", "products", "addresses", "profiles", "users",
	} {
		_, err := s.DB.ExecContext(s.Ctx, "DELETE FROM "+table)
		s.Require().NoError(err)
	}
}

func (s *RepositorySuite) createProduct(name, category string, price int64) models.Product {
	p := models.Product{ID: uuid.NewString(), Name: name, Category: category, Price: price, StockQuantity: 10}
	s.Require().NoError(s.products.Create(s.Ctx, &p))
	return p
}

func (s *RepositorySuite) TestAddress_SingleDefaultPerOwner() {
	owner := uuid.NewString()

	home := models.Address{ID: uuid.NewString(), UserID: owner, Label: "Home", RecipientName: "Ana",
		AddressLine: "Jl. Mawar 1", City: "Jakarta", PostalCode: "12345", IsDefault: true}
	s.Require().NoError(s.addresses.Create(s.Ctx, &home))

	office := models.Address{ID: uuid.NewString(), UserID: owner, Label: "Office", RecipientName: "Ana",
		AddressLine: "Jl. Melati 2", City: "Bandung", PostalCode: "40111"}
	s.Require().NoError(s.addresses.Create(s.Ctx, &office))

	office.IsDefault = true
	s.Require().NoError(s.addresses.Update(s.Ctx, &office))

	list, err := s.addresses.List(s.Ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(list, 2)

	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
			s.Equal(office.ID, a.ID)
		}
	}
	s.Equal(1, defaults)
	s.Equal(office.ID, list[0].ID, "default address is listed first")
}

func (s *RepositorySuite) TestAddress_ForeignOwnerIsNotFound() {
	a := models.Address{ID: uuid.NewString(), UserID: uuid.NewString(), RecipientName: "Budi",
		AddressLine: "Jl. Kenanga", City: "Surabaya", PostalCode: "60111"}
	s.Require().NoError(s.addresses.Create(s.Ctx, &a))

	intruder := a
	intruder.UserID = uuid.NewString()
	s.ErrorIs(s.addresses.Update(s.Ctx, &intruder), ErrNotFound)
	s.ErrorIs(s.addresses.Delete(s.Ctx, intruder.UserID, a.ID), ErrNotFound)
	s.NoError(s.addresses.Delete(s.Ctx, a.UserID, a.ID))
}

func (s *RepositorySuite) TestOrder_PriceSnapshotSurvivesCatalogChange() {
	a := s.createProduct("Chicken Breast", "Meat & Seafood", 10000)
	b := s.createProduct("Eggs", "Dairy & Eggs", 5000)
	owner := uuid.NewString()

	order := &models.Order{ID: uuid.NewString(), UserID: owner, Status: models.OrderStatusPending, TotalAmount: 25000}
	created, existed, err := s.orders.CreateOrder(s.Ctx, order)
	s.Require().NoError(err)
	s.False(existed)

	s.Require().NoError(s.orders.InsertItems(s.Ctx, created.ID, []models.OrderItem{
		{ProductID: a.ID, Quantity: 2, PriceAtPurchase: 10000},
		{ProductID: b.ID, Quantity: 1, PriceAtPurchase: 5000},
	}))
	s.Require().NoError(s.orders.InsertShipping(s.Ctx, models.OrderShipping{
		OrderID: created.ID, Name: "Ana", Email: "ana@example.com", Address: "Jl. Mawar 1", City: "Jakarta", PostalCode: "12345",
	}))

	a.Price = 12000
	s.Require().NoError(s.products.Update(s.Ctx, &a))

	items, err := s.orders.Items(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Len(items, 2)
	s.Equal(int64(10000), items[0].PriceAtPurchase)
	s.Equal("Chicken Breast", items[0].ProductName)

	shipping, err := s.orders.Shipping(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Require().NotNil(shipping)
	s.Equal("12345", shipping.PostalCode)

	stored, err := s.orders.FindByID(s.Ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(int64(25000), stored.TotalAmount)
}

func (s *RepositorySuite) TestOrder_IdempotencyKeyReturnsExistingOrder() {
	owner := uuid.NewString()
	key := "checkout-attempt-1"

	first, existed, err := s.orders.CreateOrder(s.Ctx, &models.Order{
		ID: uuid.NewString(), UserID: owner, Status: models.OrderStatusPending, TotalAmount: 1000, IdempotencyKey: &key,
	})
	s.Require().NoError(err)
	s.False(existed)

	second, existed, err := s.orders.CreateOrder(s.Ctx, &models.Order{
		ID: uuid.NewString(), UserID: owner, Status: models.OrderStatusPending, TotalAmount: 1000, IdempotencyKey: &key,
	})
	s.Require().NoError(err)
	s.True(existed)
	s.Equal(first.ID, second.ID)

	_, total, err := s.orders.List(s.Ctx, models.OrderFilter{UserID: owner}, models.Page{Number: 1, Size: 10})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
}

func (s *RepositorySuite) TestOrder_ListNewestFirstWithFilters() {
	owner := uuid.NewString()
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)

	var ids []string
	for i := 0; i < 3; i++ {
		o := &models.Order{ID: uuid.NewString(), UserID: owner, Status: models.OrderStatusPending,
			TotalAmount: int64(1000 * (i + 1)), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		_, _, err := s.orders.CreateOrder(s.Ctx, o)
		s.Require().NoError(err)
		ids = append(ids, o.ID)
	}
	_, _, err := s.orders.CreateOrder(s.Ctx, &models.Order{ID: uuid.NewString(), UserID: uuid.NewString(),
		Status: models.OrderStatusPending, TotalAmount: 1})
	s.Require().NoError(err)

	s.Require().NoError(s.orders.UpdateStatus(s.Ctx, ids[0], models.OrderStatusShipped))

	page, total, err := s.orders.List(s.Ctx, models.OrderFilter{UserID: owner}, models.Page{Number: 1, Size: 2})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(page, 2)
	s.Equal(ids[2], page[0].ID)
	s.Equal(ids[1], page[1].ID)

	shipped, total, err := s.orders.List(s.Ctx, models.OrderFilter{UserID: owner, Status: models.OrderStatusShipped}, models.Page{Number: 1, Size: 10})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(ids[0], shipped[0].ID)

	s.ErrorIs(s.orders.UpdateStatus(s.Ctx, uuid.NewString(), models.OrderStatusCancelled), ErrNotFound)

	_, err = s.orders.FindByID(s.Ctx, uuid.NewString())
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestProduct_SearchAndSoftDelete() {
	spinach := s.createProduct("Fresh Spinach", "Vegetables", 15000)
	s.createProduct("Salmon Fillet", "Meat & Seafood", 75000)

	found, err := s.products.Search(s.Ctx, []string{"SPINACH", "fruit"}, 10)
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(spinach.ID, found[0].ID)

	byCategory, err := s.products.Search(s.Ctx, []string{"seafood"}, 10)
	s.Require().NoError(err)
	s.Len(byCategory, 1)

	s.Require().NoError(s.products.SoftDelete(s.Ctx, spinach.ID))
	_, err = s.products.FindByID(s.Ctx, spinach.ID)
	s.ErrorIs(err, ErrNotFound)

	all, err := s.products.List(s.Ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *RepositorySuite) TestRecipe_IngredientsAndReverseLookup() {
	garlic := s.createProduct("Garlic", "Pantry", 5000)
	pasta := s.createProduct("Spaghetti", "Pantry", 25000)

	rec := &models.Recipe{ID: uuid.NewString(), Slug: "garlic-pasta", Title: "Garlic Pasta",
		Description: "Quick weeknight pasta", DifficultyLevel: "Easy", PrepTimeMinutes: 20}
	s.Require().NoError(s.recipes.Create(s.Ctx, rec))

	for _, p := range []models.Product{garlic, pasta} {
		ing := &models.RecipeIngredient{RecipeID: rec.ID, ProductID: p.ID, QuantityRequired: 1, Unit: "pcs"}
		s.Require().NoError(s.recipes.AddIngredient(s.Ctx, ing))
		s.NotZero(ing.ID)
	}

	loaded, err := s.recipes.FindByID(s.Ctx, "garlic-pasta")
	s.Require().NoError(err)
	s.Equal(2, loaded.IngredientCount)
	s.Require().Len(loaded.Ingredients, 2)
	s.Equal("Garlic", loaded.Ingredients[0].Product.Name)

	using, err := s.recipes.UsingProducts(s.Ctx, []string{pasta.ID}, 5)
	s.Require().NoError(err)
	s.Require().Len(using, 1)
	s.Equal(rec.ID, using[0].ID)

	byTitle, err := s.recipes.Search(s.Ctx, []string{"garlic"}, 5)
	s.Require().NoError(err)
	s.Len(byTitle, 1)

	s.Require().NoError(s.products.SoftDelete(s.Ctx, pasta.ID))
	ingredients, err := s.recipes.Ingredients(s.Ctx, []string{rec.ID})
	s.Require().NoError(err)
	s.Require().Len(ingredients[rec.ID], 1, "soft-deleted products drop out of ingredient lists")
	s.Equal(garlic.ID, ingredients[rec.ID][0].ProductID)

	s.Require().NoError(s.recipes.Delete(s.Ctx, rec.ID))
	_, err = s.recipes.FindByID(s.Ctx, rec.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestProfileAndUsers() {
	id := uuid.NewString()
	_, err := s.profiles.Get(s.Ctx, id)
	s.ErrorIs(err, ErrNotFound)

	s.Require().NoError(s.profiles.Upsert(s.Ctx, &models.Profile{ID: id, FullName: "Ana"}))
	s.Require().NoError(s.profiles.Upsert(s.Ctx, &models.Profile{ID: id, FullName: "Ana Putri", PhoneNumber: "0812"}))

	p, err := s.profiles.Get(s.Ctx, id)
	s.Require().NoError(err)
	s.Equal("Ana Putri", p.FullName)
	s.Equal("0812", p.PhoneNumber)

	s.Require().NoError(s.users.Upsert(s.Ctx, &models.User{ID: id, Email: "ana@example.com", Name: "Ana", IsAdmin: true}))
	s.Require().NoError(s.users.Upsert(s.Ctx, &models.User{ID: id, Email: "ana@example.com"}))

	isAdmin, err := s.users.IsAdmin(s.Ctx, id)
	s.Require().NoError(err)
	s.True(isAdmin)

	users, err := s.users.List(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal("Ana", users[0].Name)
}
