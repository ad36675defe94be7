package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultBrand             = "Goodluck Fashion"
	DefaultEstimatedDelivery = "3-5 business days"
)

// Image is a stored product image. PublicID identifies it in the image store.
type Image struct {
	PublicID string `bson:"public_id" json:"public_id"`
	URL      string `bson:"url" json:"url"`
}

type SizeStock struct {
	Size  string `bson:"size" json:"size"`
	Stock int    `bson:"stock" json:"stock" validate:"gte=0"`
}

type Color struct {
	Name string `bson:"name" json:"name"`
	Hex  string `bson:"hex" json:"hex"`
}

type Review struct {
	User      primitive.ObjectID `bson:"user" json:"user"`
	Name      string             `bson:"name" json:"name"`
	Rating    float64            `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type ProductShipping struct {
	FreeShipping      bool   `bson:"freeShipping" json:"freeShipping"`
	EstimatedDelivery string `bson:"estimatedDelivery" json:"estimatedDelivery"`
}

// Product represents a catalog entry. Stock and Ratings are derived fields:
// call SyncStock and SyncRatings after mutating Sizes or Reviews.
type Product struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name             string             `bson:"name" json:"name" validate:"max=100"`
	Description      string             `bson:"description" json:"description" validate:"max=1000"`
	Price            float64            `bson:"price" json:"price" validate:"gte=0"`
	OriginalPrice    float64            `bson:"originalPrice" json:"originalPrice" validate:"gte=0"`
	Discount         float64            `bson:"discount" json:"discount" validate:"gte=0,lte=100"`
	Images           []Image            `bson:"images" json:"images"`
	Category         string             `bson:"category" json:"category" validate:"oneof=men women kids accessories sale"`
	Subcategory      string             `bson:"subcategory" json:"subcategory"`
	Brand            string             `bson:"brand" json:"brand"`
	Sizes            []SizeStock        `bson:"sizes" json:"sizes" validate:"dive"`
	Colors           []Color            `bson:"colors" json:"colors"`
	Ratings          float64            `bson:"ratings" json:"ratings"`
	NumOfReviews     int                `bson:"numOfReviews" json:"numOfReviews"`
	Reviews          []Review           `bson:"reviews" json:"reviews"`
	Stock            int                `bson:"stock" json:"stock" validate:"gte=0"`
	IsActive         bool               `bson:"isActive" json:"isActive"`
	Material         string             `bson:"material,omitempty" json:"material,omitempty"`
	CareInstructions string             `bson:"careInstructions,omitempty" json:"careInstructions,omitempty"`
	ShippingInfo     ProductShipping    `bson:"shippingInfo" json:"shippingInfo"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SyncStock recomputes the total stock from the per-size entries when sizes exist.
func (p *Product) SyncStock() {
	if len(p.Sizes) == 0 {
		if p.Stock < 0 {
			p.Stock = 0
		}
		return
	}
	total := 0
	for _, s := range p.Sizes {
		total += s.Stock
	}
	if total < 0 {
		total = 0
	}
	p.Stock = total
}

// AvailableStock returns the stock a cart line for size may draw from.
// Products without size data fall back to the total stock.
func (p *Product) AvailableStock(size string) (int, bool) {
	if len(p.Sizes) == 0 {
		return p.Stock, true
	}
	for _, s := range p.Sizes {
		if s.Size == size {
			return s.Stock, true
		}
	}
	return 0, false
}

// DecrementStock removes qty units from size, floored at zero. Without size data
// (or without a size) the total stock is decremented instead.
func (p *Product) DecrementStock(size string, qty int) {
	if size != "" && len(p.Sizes) > 0 {
		for i := range p.Sizes {
			if p.Sizes[i].Size == size {
				p.Sizes[i].Stock = max(0, p.Sizes[i].Stock-qty)
				break
			}
		}
		p.SyncStock()
		return
	}
	p.Stock = max(0, p.Stock-qty)
}

func (p *Product) HasReviewFrom(userID primitive.ObjectID) bool {
	for _, r := range p.Reviews {
		if r.User == userID {
			return true
		}
	}
	return false
}

// AddReview appends r and refreshes the aggregate rating fields.
func (p *Product) AddReview(r Review) {
	p.Reviews = append(p.Reviews, r)
	p.SyncRatings()
}

// SyncRatings sets NumOfReviews and Ratings (arithmetic mean) from Reviews.
func (p *Product) SyncRatings() {
	p.NumOfReviews = len(p.Reviews)
	if p.NumOfReviews == 0 {
		p.Ratings = 0
		return
	}
	sum := 0.0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Ratings = sum / float64(p.NumOfReviews)
}

func (p *Product) FirstImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}
