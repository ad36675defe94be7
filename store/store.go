// Package store persists the storefront's documents.
package store

import (
	"context"
	"errors"
	"time"

	"go-storefront/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Product listing sort keys.
const (
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortRating    = "rating"
	SortNewest    = "newest"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 50

	// MaxPage keeps Skip well inside int64.
	MaxPage = 1_000_000
)

// ProductQuery filters the public product listing. Only active products are listed.
type ProductQuery struct {
	Category    string
	Subcategory string
	Brands      []string
	MinPrice    *float64
	MaxPrice    *float64
	MinRating   *float64
	Size        string
	Color       string
	Keyword     string
	Sort        string
	Page        int
	Limit       int
}

// Normalize clamps paging to 1 <= page <= MaxPage and 1 <= limit <= MaxPageSize.
func (q *ProductQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
}

func (q ProductQuery) Skip() int64 {
	return int64(q.Limit) * int64(q.Page-1)
}

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByVerificationToken matches the token hash and an expiry later than now.
	FindByVerificationToken(ctx context.Context, hash string, now time.Time) (*models.User, error)
	FindByResetToken(ctx context.Context, hash string, now time.Time) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	List(ctx context.Context) ([]models.User, error)
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// FindByIDs resolves products in one round trip. Missing ids are absent from the map.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
	// List returns one page of active products and the total number of matches.
	List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error)
	ListInactive(ctx context.Context) ([]models.Product, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
	// Search returns active products matching keyword, best match first.
	Search(ctx context.Context, keyword string) ([]models.Product, error)
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type CartStore interface {
	// GetOrCreate returns the user's cart, creating an empty one if needed.
	GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Save(ctx context.Context, c *models.Cart) error
	// ClearItems empties the user's cart if one exists.
	ClearItems(ctx context.Context, userID primitive.ObjectID) error
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	// ListByUser and ListAll skip cancelled orders and return the newest first.
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	Update(ctx context.Context, o *models.Order) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type WishlistStore interface {
	GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Wishlist, error)
	Save(ctx context.Context, w *models.Wishlist) error
}

// SettingsStore holds the single settings document.
type SettingsStore interface {
	// Get returns the settings, creating them with defaults on first use.
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, s *models.Settings) error
}

// Store groups the collections the API works with.
type Store struct {
	Users     UserStore
	Products  ProductStore
	Carts     CartStore
	Orders    OrderStore
	Wishlists WishlistStore
	Settings  SettingsStore
}

func prepareProduct(p *models.Product, now time.Time) {
	p.SyncStock()
	p.SyncRatings()
	if p.Images == nil {
		p.Images = []models.Image{}
	}
	if p.Reviews == nil {
		p.Reviews = []models.Review{}
	}
	p.UpdatedAt = now
}

// listView trims a product to what listings return.
func listView(p models.Product) models.Product {
	if len(p.Images) > 1 {
		p.Images = p.Images[:1]
	}
	p.Reviews = nil
	return p
}
