package controllers

import (
	"context"
	"fmt"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/utils"

	"github.com/gorilla/mux"
)

// ProductController handles product-related requests
type ProductController struct {
	Products store.ProductStore
	Users    store.UserStore
	Images   utils.ImageStore
	Cache    utils.Cache
	CacheTTL time.Duration
}

// NewProductController creates a new ProductController
func NewProductController(products store.ProductStore, users store.UserStore, images utils.ImageStore, cache utils.Cache, ttl time.Duration) *ProductController {
	if cache == nil {
		cache = utils.NopCache{}
	}
	return &ProductController{Products: products, Users: users, Images: images, Cache: cache, CacheTTL: ttl}
}

var errProductNotFound = utils.NewError(utils.KindNotFound, "Product not found")

func productCacheKey(id string) string {
	return "product:" + id
}

// invalidate drops the cached detail view of a product.
func (pc *ProductController) invalidate(ctx context.Context, ids ...string) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productCacheKey(id)
	}
	if err := pc.Cache.Delete(ctx, keys...); err != nil {
		log.Printf("product cache: delete %v: %v", keys, err)
	}
}

type productPage struct {
	Success     bool             `json:"success"`
	Count       int              `json:"count"`
	Total       int64            `json:"total"`
	ResPerPage  int              `json:"resPerPage"`
	CurrentPage int              `json:"currentPage"`
	TotalPages  int              `json:"totalPages"`
	Data        []models.Product `json:"data"`
}

func floatParam(r *http.Request, name string) *float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func intParam(r *http.Request, name string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return fallback
	}
	return v
}

func firstParam(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(r.URL.Query().Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// parseProductQuery reads listing filters from the query string.
func parseProductQuery(r *http.Request) store.ProductQuery {
	q := store.ProductQuery{
		Category:    firstParam(r, "category"),
		Subcategory: firstParam(r, "subcategory", "type"),
		MinPrice:    floatParam(r, "minPrice"),
		MaxPrice:    floatParam(r, "maxPrice"),
		MinRating:   floatParam(r, "rating"),
		Size:        firstParam(r, "size"),
		Color:       firstParam(r, "color"),
		Keyword:     firstParam(r, "keyword", "q"),
		Sort:        firstParam(r, "sort"),
		Page:        intParam(r, "page", 1),
		Limit:       intParam(r, "limit", store.DefaultPageSize),
	}
	for _, raw := range r.URL.Query()["brand"] {
		for _, brand := range strings.Split(raw, ",") {
			if brand = strings.TrimSpace(brand); brand != "" {
				q.Brands = append(q.Brands, brand)
			}
		}
	}
	q.Normalize()
	return q
}

// GetProducts lists active products with filters, sorting and paging
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := parseProductQuery(r)

	ctx, cancel := requestContext(r)
	defer cancel()

	products, total, err := pc.Products.List(ctx, q)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, productPage{
		Success:     true,
		Count:       len(products),
		Total:       total,
		ResPerPage:  q.Limit,
		CurrentPage: q.Page,
		TotalPages:  int(math.Ceil(float64(total) / float64(q.Limit))),
		Data:        products,
	})
}

// GetProduct returns one product, active or not
func (pc *ProductController) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", errProductNotFound)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	key := productCacheKey(id.Hex())
	var cached models.Product
	hit, err := pc.Cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("product cache: get %s: %v", key, err)
	}
	if hit {
		utils.RespondData(w, http.StatusOK, cached)
		return
	}

	product, err := pc.Products.FindByID(ctx, id)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, errProductNotFound))
		return
	}
	if err := pc.Cache.Set(ctx, key, product, pc.CacheTTL); err != nil {
		log.Printf("product cache: set %s: %v", key, err)
	}
	utils.RespondData(w, http.StatusOK, product)
}

// saveUploads stores the uploaded files and returns their references. Files saved
// before a failure are removed again.
func (pc *ProductController) saveUploads(ctx context.Context, form *productForm) ([]models.Image, error) {
	var images []models.Image
	for _, fh := range form.files {
		img, err := pc.saveUpload(ctx, fh)
		if err != nil {
			pc.deleteImages(ctx, images)
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func (pc *ProductController) saveUpload(ctx context.Context, fh *multipart.FileHeader) (models.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Image{}, err
	}
	defer f.Close()
	img, err := pc.Images.Save(ctx, fh.Filename, f)
	if err != nil {
		return models.Image{}, fmt.Errorf("save image %s: %w", fh.Filename, err)
	}
	return img, nil
}

func (pc *ProductController) deleteImages(ctx context.Context, images []models.Image) {
	for _, img := range images {
		img := img
		utils.BestEffort(ctx, "delete image "+img.PublicID, func(ctx context.Context) error {
			return pc.Images.Delete(ctx, img.PublicID)
		})
	}
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	form, err := readProductForm(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	product := newProductFromForm(form)
	if err := utils.Validate(product); err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	uploaded, err := pc.saveUploads(ctx, form)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	product.Images = append(uploaded, product.Images...)

	if err := pc.Products.Create(ctx, product); err != nil {
		pc.deleteImages(ctx, uploaded)
		utils.RespondError(w, err)
		return
	}
	utils.RespondData(w, http.StatusCreated, product)
}

// UpdateProduct applies the submitted fields to an existing product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", errProductNotFound)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	form, err := readProductForm(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	product, err := pc.Products.FindByID(ctx, id)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, errProductNotFound))
		return
	}
	applyForm(product, form)
	if err := utils.Validate(product); err != nil {
		utils.RespondError(w, err)
		return
	}

	uploaded, err := pc.saveUploads(ctx, form)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	// Uploaded files and URL references replace the image list when either is sent.
	if bodyImages := form.bodyImages(); len(uploaded) > 0 || len(bodyImages) > 0 {
		product.Images = append(uploaded, bodyImages...)
	}

	if err := pc.Products.Update(ctx, product); err != nil {
		pc.deleteImages(ctx, uploaded)
		utils.RespondError(w, notFoundAs(err, errProductNotFound))
		return
	}
	pc.invalidate(ctx, id.Hex())
	utils.RespondData(w, http.StatusOK, product)
}

// DeleteProduct removes a product and its stored images (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", errProductNotFound)
	if err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	product, err := pc.Products.FindByID(ctx, id)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, errProductNotFound))
		return
	}
	pc.deleteImages(ctx, product.Images)

	if err := pc.Products.Delete(ctx, id); err != nil {
		utils.RespondError(w, notFoundAs(err, errProductNotFound))
		return
	}
	pc.invalidate(ctx, id.Hex())
	utils.RespondMessage(w, http.StatusOK, "Product deleted successfully")
}

type reviewInput struct {
	Rating  float64 `json:"rating" validate:"required,min=1,max=5"`
	Comment string  `json:"comment" validate:"required"`
}

// CreateReview adds the current user's review to a product
func (pc *ProductController) CreateReview(w http.ResponseWriter, r *http.Request) {
	_, userID, err := currentUser(r)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	id, err := pathID(r, "id", errProductNotFound)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	var input reviewInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.RespondError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	product, err := pc.Products.FindByID(ctx, id)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, errProductNotFound))
		return
	}
	if product.HasReviewFrom(userID) {
		utils.RespondError(w, utils.NewError(utils.KindAlreadyReviewed, "Product already reviewed"))
		return
	}
	user, err := pc.Users.FindByID(ctx, userID)
	if err != nil {
		utils.RespondError(w, notFoundAs(err, utils.NewError(utils.KindUnauthenticated, "User not found")))
		return
	}

	product.AddReview(models.Review{
		User:      userID,
		Name:      user.Name,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedAt: time.Now().UTC(),
	})
	if err := pc.Products.Update(ctx, product); err != nil {
		utils.RespondError(w, notFoundAs(err, errProductNotFound))
		return
	}
	pc.invalidate(ctx, id.Hex())
	utils.RespondMessage(w, http.StatusCreated, "Review added successfully")
}

// GetInactiveProducts lists deactivated products (Admin only)
func (pc *ProductController) GetInactiveProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := requestContext(r)
	defer cancel()

	products, err := pc.Products.ListInactive(ctx)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, listResponse{Success: true, Count: len(products), Data: products})
}

// GetProductsByCategory lists the active products of one category
func (pc *ProductController) GetProductsByCategory(w http.ResponseWriter, r *http.Request) {
	category := strings.ToLower(mux.Vars(r)["category"])

	ctx, cancel := requestContext(r)
	defer cancel()

	products, err := pc.Products.ListByCategory(ctx, category)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, listResponse{Success: true, Count: len(products), Data: products})
}

// SearchProducts ranks active products against a keyword
func (pc *ProductController) SearchProducts(w http.ResponseWriter, r *http.Request) {
	keyword := firstParam(r, "keyword", "q")
	if keyword == "" {
		utils.RespondError(w, utils.NewError(utils.KindValidation, "Please provide a search keyword"))
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	products, err := pc.Products.Search(ctx, keyword)
	if err != nil {
		utils.RespondError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, listResponse{Success: true, Count: len(products), Data: products})
}
