package store

import (
	"context"
	"math"
	"testing"
	"time"

	"go-storefront/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newProduct(name string, price float64, sizes ...models.SizeStock) *models.Product {
	return &models.Product{
		Name:        name,
		Description: name + " description",
		Price:       price,
		Category:    "men",
		Subcategory: "shirts",
		Brand:       models.DefaultBrand,
		Sizes:       sizes,
		Colors:      []models.Color{{Name: "Black", Hex: "#000000"}},
		IsActive:    true,
	}
}

func TestMemoryUsersTokensAndUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	u := &models.User{Name: "Ann", Email: "Ann@Example.com", Role: models.RoleUser}
	require.NoError(t, s.Users.Create(ctx, u))
	assert.False(t, u.ID.IsZero())
	assert.Equal(t, "ann@example.com", u.Email)

	err := s.Users.Create(ctx, &models.User{Name: "Other", Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	now := time.Now()
	u.SetResetToken("hash-1", now.Add(10*time.Minute))
	require.NoError(t, s.Users.Update(ctx, u))

	found, err := s.Users.FindByResetToken(ctx, "hash-1", now)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = s.Users.FindByResetToken(ctx, "hash-1", now.Add(11*time.Minute))
	assert.ErrorIs(t, err, ErrNotFound)

	found.ClearResetToken()
	require.NoError(t, s.Users.Update(ctx, found))
	_, err = s.Users.FindByResetToken(ctx, "hash-1", now)
	assert.ErrorIs(t, err, ErrNotFound)

	byEmail, err := s.Users.FindByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
}

func TestMemoryReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := newProduct("Shirt", 100, models.SizeStock{Size: "M", Stock: 5})
	require.NoError(t, s.Products.Create(ctx, p))

	got, err := s.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	got.Sizes[0].Stock = 0

	again, err := s.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, again.Sizes[0].Stock)
}

func TestMemoryProductStockStaysDerived(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := newProduct("Shirt", 100, models.SizeStock{Size: "M", Stock: 5}, models.SizeStock{Size: "L", Stock: 3})
	p.Stock = 99
	require.NoError(t, s.Products.Create(ctx, p))
	assert.Equal(t, 8, p.Stock)

	p.DecrementStock("M", 2)
	require.NoError(t, s.Products.Update(ctx, p))
	got, err := s.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, got.Stock)
}

func TestMemoryProductListing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	cheap := newProduct("Cotton Tee", 150, models.SizeStock{Size: "S", Stock: 2})
	mid := newProduct("Linen Shirt", 450, models.SizeStock{Size: "M", Stock: 2})
	mid.Brand = "Acme"
	pricey := newProduct("Wool Coat", 900, models.SizeStock{Size: "M", Stock: 1})
	pricey.Category = "women"
	hidden := newProduct("Old Shirt", 10)
	hidden.IsActive = false
	for _, p := range []*models.Product{cheap, mid, pricey, hidden} {
		require.NoError(t, s.Products.Create(ctx, p))
	}

	all, total, err := s.Products.List(ctx, ProductQuery{Sort: SortPriceLow})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Cotton Tee", "Linen Shirt", "Wool Coat"}, names(all))

	minPrice := 200.0
	got, total, err := s.Products.List(ctx, ProductQuery{MinPrice: &minPrice, Size: "M", Sort: SortPriceHigh})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"Wool Coat", "Linen Shirt"}, names(got))

	got, _, err = s.Products.List(ctx, ProductQuery{Brands: []string{"Acme", "Nope"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Linen Shirt"}, names(got))

	got, _, err = s.Products.List(ctx, ProductQuery{Keyword: "shirt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Linen Shirt"}, names(got))

	page2, total, err := s.Products.List(ctx, ProductQuery{Sort: SortPriceLow, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []string{"Wool Coat"}, names(page2))

	inactive, err := s.Products.ListInactive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Old Shirt"}, names(inactive))

	women, err := s.Products.ListByCategory(ctx, "women")
	require.NoError(t, err)
	assert.Equal(t, []string{"Wool Coat"}, names(women))

	found, err := s.Products.Search(ctx, "linen coat")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Linen Shirt", "Wool Coat"}, names(found))
}

func TestProductQueryNormalize(t *testing.T) {
	q := ProductQuery{}
	q.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.Limit)

	q = ProductQuery{Page: 3, Limit: 500}
	q.Normalize()
	assert.Equal(t, MaxPageSize, q.Limit)
	assert.EqualValues(t, 100, q.Skip())

	q = ProductQuery{Page: math.MaxInt, Limit: MaxPageSize}
	q.Normalize()
	assert.Equal(t, MaxPage, q.Page)
	assert.Positive(t, q.Skip())
}

func TestListPastLastPageIsEmpty(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Products.Create(ctx, &models.Product{Name: "Tee", Category: "men", IsActive: true}))

	page, total, err := s.Products.List(ctx, ProductQuery{Page: math.MaxInt})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Empty(t, page)
}

func names(products []models.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestMemoryCartLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	userID := primitive.NewObjectID()

	_, err := s.Carts.FindByUser(ctx, userID)
	assert.ErrorIs(t, err, ErrNotFound)

	cart, err := s.Carts.GetOrCreate(ctx, userID)
	require.NoError(t, err)
	again, err := s.Carts.GetOrCreate(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	cart.AddItem(primitive.NewObjectID(), 2, "M", "Black", 120)
	require.NoError(t, s.Carts.Save(ctx, cart))

	stored, err := s.Carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalItems)
	assert.Equal(t, 240.0, stored.TotalPrice)

	require.NoError(t, s.Carts.ClearItems(ctx, userID))
	stored, err = s.Carts.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, stored.Items)
	assert.Zero(t, stored.TotalPrice)

	assert.NoError(t, s.Carts.ClearItems(ctx, primitive.NewObjectID()))
}

func TestMemoryOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	userID := primitive.NewObjectID()

	first := &models.Order{User: userID, ItemsPrice: 100, TaxPrice: 18, ShippingPrice: 100, OrderStatus: models.StatusProcessing}
	second := &models.Order{User: userID, ItemsPrice: 600, TaxPrice: 108, OrderStatus: models.StatusProcessing}
	other := &models.Order{User: primitive.NewObjectID(), ItemsPrice: 50, OrderStatus: models.StatusProcessing}
	for _, o := range []*models.Order{first, second, other} {
		require.NoError(t, s.Orders.Create(ctx, o))
	}
	assert.Equal(t, 218.0, first.TotalPrice)

	mine, err := s.Orders.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)

	all, err := s.Orders.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.Orders.Delete(ctx, first.ID))
	_, err = s.Orders.FindByID(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Orders.Delete(ctx, first.ID), ErrNotFound)
}

func TestMemorySettingsSingleton(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first, err := s.Settings.Get(ctx)
	require.NoError(t, err)
	second, err := s.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, first.MaintenanceMode)
	assert.Equal(t, "Goodluck Fashion", first.SiteName)

	first.MaintenanceMode = true
	require.NoError(t, s.Settings.Update(ctx, first))
	third, err := s.Settings.Get(ctx)
	require.NoError(t, err)
	assert.True(t, third.MaintenanceMode)
	assert.Equal(t, first.ID, third.ID)
}
