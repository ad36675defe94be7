package controllers_test

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productPage struct {
	Success     bool             `json:"success"`
	Count       int              `json:"count"`
	Total       int64            `json:"total"`
	ResPerPage  int              `json:"resPerPage"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
	Data        []models.Product `json:"data"`
}

func TestCreateProductDefaults(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.createUser(t, "adm@example.com", "secret123", models.RoleAdmin, true)

	rec := env.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"name":          "Linen Shirt",
		"price":         "80",
		"originalPrice": 100,
		"stock":         "7",
	}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var p models.Product
	decodeData(t, rec, &p)
	assert.Equal(t, 80.0, p.Price)
	assert.Equal(t, 20.0, p.Discount)
	assert.Equal(t, "men", p.Category)
	assert.Equal(t, "general", p.Subcategory)
	assert.Equal(t, models.DefaultBrand, p.Brand)
	assert.Equal(t, []models.SizeStock{{Size: "M", Stock: 7}}, p.Sizes)
	assert.Equal(t, []models.Color{{Name: "Default", Hex: "#000000"}}, p.Colors)
	assert.Equal(t, 7, p.Stock)
	assert.True(t, p.IsActive)
	assert.Equal(t, models.DefaultEstimatedDelivery, p.ShippingInfo.EstimatedDelivery)
}

func TestCreateProductValidation(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.createUser(t, "adm@example.com", "secret123", models.RoleAdmin, true)
	_, user := env.createUser(t, "usr@example.com", "secret123", models.RoleUser, true)

	rec := env.do(t, http.MethodPost, "/api/products", map[string]interface{}{"name": "Hat"}, user)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/products", map[string]interface{}{"name": "Hat", "category": "pets"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(utils.KindValidation), decode(t, rec).Error)

	rec = env.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"name":  "Hat",
		"sizes": []map[string]interface{}{{"size": "S", "stock": -1}},
	}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec).Message, "sizes[0].stock must be at least 0")

	rec = env.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"name":     strings.Repeat("x", 101),
		"discount": 150,
	}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	msg := decode(t, rec).Message
	assert.Contains(t, msg, "name must be at most 100")
	assert.Contains(t, msg, "discount must be at most 100")
}

func multipartProduct(t *testing.T, fields map[string]string, files ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, name := range files {
		fw, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestCreateProductWithUploads(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.createUser(t, "adm@example.com", "secret123", models.RoleAdmin, true)

	send := func(body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/products", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+admin)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	body, ct := multipartProduct(t, map[string]string{
		"name":     "Silk Dress",
		"price":    "250",
		"category": "women",
		"sizes":    `[{"size":"S","stock":"2"},{"size":"M","stock":3}]`,
		"colors":   `[{"name":"Red","hex":"#ff0000"}]`,
		"isActive": "false",
	}, "front.png", "back.JPG")
	rec := send(body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var p models.Product
	decodeData(t, rec, &p)
	require.Len(t, p.Images, 2)
	assert.Equal(t, 5, p.Stock)
	assert.False(t, p.IsActive)
	assert.Equal(t, "Red", p.Colors[0].Name)

	// Stored files are served back.
	rec = env.do(t, http.MethodGet, p.Images[0].URL, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fake image bytes", rec.Body.String())

	body, ct = multipartProduct(t, map[string]string{"name": "Bad"}, "anim.gif")
	rec = send(body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	files := make([]string, utils.MaxProductImages+1)
	for i := range files {
		files[i] = fmt.Sprintf("img%d.png", i)
	}
	body, ct = multipartProduct(t, map[string]string{"name": "Many"}, files...)
	rec = send(body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/products/"+p.ID.Hex(), nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, p.Images[0].URL, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "images are removed with the product")
}

func TestUpdateProduct(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.createUser(t, "adm@example.com", "secret123", models.RoleAdmin, true)
	p := env.createProduct(t, &models.Product{
		Name: "Polo", Price: 40, OriginalPrice: 50, IsActive: true,
		Sizes:  []models.SizeStock{{Size: "M", Stock: 4}},
		Images: []models.Image{{PublicID: "old", URL: "http://img/old.png"}},
	})

	rec := env.do(t, http.MethodPut, "/api/products/"+p.ID.Hex(), map[string]interface{}{
		"price":  "not-a-number",
		"name":   "Polo Classic",
		"sizes":  []map[string]interface{}{{"size": "M", "stock": 1}, {"size": "L", "stock": 6}},
		"images": []string{"http://img/new.png"},
	}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got models.Product
	decodeData(t, rec, &got)
	assert.Equal(t, "Polo Classic", got.Name)
	assert.Equal(t, 40.0, got.Price, "non-numeric input keeps the previous value")
	assert.Equal(t, 7, got.Stock)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "http://img/new.png", got.Images[0].URL)

	rec = env.do(t, http.MethodPut, "/api/products/64b7f0c2a1b2c3d4e5f60718", map[string]interface{}{"name": "x"}, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t)
	hidden := env.createProduct(t, &models.Product{Name: "Archived", Price: 10, IsActive: false})

	rec := env.do(t, http.MethodGet, "/api/products/"+hidden.ID.Hex(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code, "inactive products are readable by id")

	rec = env.do(t, http.MethodGet, "/api/products/64b7f0c2a1b2c3d4e5f60718", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/products/not-an-id", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 15; i++ {
		env.createProduct(t, &models.Product{
			Name:     fmt.Sprintf("Tee %02d", i),
			Price:    float64(10 + i),
			Brand:    []string{"Acme", "Zed"}[i%2],
			Category: "men",
			IsActive: true,
			Sizes:    []models.SizeStock{{Size: "M", Stock: 1}},
		})
	}
	env.createProduct(t, &models.Product{Name: "Hidden Tee", Price: 1, Category: "men", IsActive: false})

	rec := env.do(t, http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page productPage
	decodeInto(t, rec, &page)
	assert.Equal(t, int64(15), page.Total)
	assert.Equal(t, 12, page.Count)
	assert.Equal(t, 2, page.TotalPages)

	rec = env.do(t, http.MethodGet, "/api/products?page=2&limit=10&sort=price-low", nil, "")
	decodeInto(t, rec, &page)
	require.Equal(t, 5, page.Count)
	assert.Equal(t, 20.0, page.Data[0].Price)

	rec = env.do(t, http.MethodGet, "/api/products?limit=500", nil, "")
	decodeInto(t, rec, &page)
	assert.Equal(t, 50, page.ResPerPage)

	rec = env.do(t, http.MethodGet, "/api/products?page=9223372036854775807", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page = productPage{}
	decodeInto(t, rec, &page)
	assert.Empty(t, page.Data)
	assert.Equal(t, store.MaxPage, page.CurrentPage)
	assert.Equal(t, int64(15), page.Total)

	rec = env.do(t, http.MethodGet, "/api/products?brand=Acme&minPrice=12&maxPrice=20&sort=price-high", nil, "")
	decodeInto(t, rec, &page)
	require.NotEmpty(t, page.Data)
	for _, p := range page.Data {
		assert.Equal(t, "Acme", p.Brand)
		assert.True(t, p.Price >= 12 && p.Price <= 20)
	}
	assert.Equal(t, 20.0, page.Data[0].Price)

	rec = env.do(t, http.MethodGet, "/api/products/category/men", nil, "")
	var list struct {
		Count int `json:"count"`
	}
	decodeInto(t, rec, &list)
	assert.Equal(t, 15, list.Count)
}

func TestSearchAndInactiveListing(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.createUser(t, "adm@example.com", "secret123", models.RoleAdmin, true)
	env.createProduct(t, &models.Product{Name: "Denim Jacket", Description: "Washed denim", Price: 90, IsActive: true})
	env.createProduct(t, &models.Product{Name: "Wool Coat", Price: 200, IsActive: true})
	env.createProduct(t, &models.Product{Name: "Denim Cap", Price: 15, IsActive: false})

	rec := env.do(t, http.MethodGet, "/api/products/search", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide a search keyword", decode(t, rec).Message)

	rec = env.do(t, http.MethodGet, "/api/products/search?keyword=denim", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var found struct {
		Data []models.Product `json:"data"`
	}
	decodeInto(t, rec, &found)
	require.Len(t, found.Data, 1)
	assert.Equal(t, "Denim Jacket", found.Data[0].Name)

	rec = env.do(t, http.MethodGet, "/api/products/inactive", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/products/inactive", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &found)
	require.Len(t, found.Data, 1)
	assert.Equal(t, "Denim Cap", found.Data[0].Name)
}

func TestProductReviews(t *testing.T) {
	env := newTestEnv(t)
	_, ann := env.createUser(t, "ann@example.com", "secret123", models.RoleUser, true)
	_, bob := env.createUser(t, "bob@example.com", "secret123", models.RoleUser, true)
	p := env.createProduct(t, &models.Product{Name: "Boots", Price: 120, IsActive: true})
	path := "/api/products/" + p.ID.Hex() + "/reviews"

	rec := env.do(t, http.MethodPost, path, map[string]interface{}{"rating": 5, "comment": "Great"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, path, map[string]interface{}{"rating": 6, "comment": "Too good"}, ann)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, path, map[string]interface{}{"rating": 5, "comment": "Great"}, ann)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Review added successfully", decode(t, rec).Message)

	rec = env.do(t, http.MethodPost, path, map[string]interface{}{"rating": 1, "comment": "Changed my mind"}, ann)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(utils.KindAlreadyReviewed), decode(t, rec).Error)

	rec = env.do(t, http.MethodPost, path, map[string]interface{}{"rating": 2, "comment": "Tight fit"}, bob)
	require.Equal(t, http.StatusCreated, rec.Code)

	got, err := env.store.Products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumOfReviews)
	assert.Equal(t, 3.5, got.Ratings)
	assert.Equal(t, "Test user", got.Reviews[0].Name)
}

func TestProductCacheIsInvalidatedOnWrite(t *testing.T) {
	cache := newMapCache()
	env := newTestEnvWithCache(t, cache)
	_, admin := env.createUser(t, "adm@example.com", "secret123", models.RoleAdmin, true)
	p := env.createProduct(t, &models.Product{Name: "Cached Tee", Price: 10, IsActive: true})
	path := "/api/products/" + p.ID.Hex()

	rec := env.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, cache.keys(), "product:"+p.ID.Hex())

	rec = env.do(t, http.MethodPut, path, map[string]interface{}{"name": "Fresh Tee"}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, cache.keys(), "product:"+p.ID.Hex())

	rec = env.do(t, http.MethodGet, path, nil, "")
	var got models.Product
	decodeData(t, rec, &got)
	assert.Equal(t, "Fresh Tee", got.Name)
}

func TestProductRoutesDecodeJSONNumbers(t *testing.T) {
	env := newTestEnv(t)
	_, admin := env.createUser(t, "adm@example.com", "secret123", models.RoleAdmin, true)

	raw := []byte(`{"name":"Tote","price":35.5,"shippingInfo":{"freeShipping":true},"category":"accessories"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var p map[string]interface{}
	decodeData(t, rec, &p)
	assert.Equal(t, 35.5, p["price"])
	shipping := p["shippingInfo"].(map[string]interface{})
	assert.Equal(t, true, shipping["freeShipping"])
	assert.Equal(t, models.DefaultEstimatedDelivery, shipping["estimatedDelivery"])
}
