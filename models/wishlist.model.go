package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wishlist is a user's set of saved products. One per user.
type Wishlist struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	User      primitive.ObjectID   `bson:"user" json:"user"`
	Products  []primitive.ObjectID `bson:"products" json:"products"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func NewWishlist(userID primitive.ObjectID) *Wishlist {
	return &Wishlist{User: userID, Products: []primitive.ObjectID{}}
}

func (w *Wishlist) Contains(productID primitive.ObjectID) bool {
	for _, id := range w.Products {
		if id == productID {
			return true
		}
	}
	return false
}

// Add appends productID unless it is already present.
func (w *Wishlist) Add(productID primitive.ObjectID) bool {
	if w.Contains(productID) {
		return false
	}
	w.Products = append(w.Products, productID)
	return true
}

func (w *Wishlist) Remove(productID primitive.ObjectID) bool {
	for i, id := range w.Products {
		if id == productID {
			w.Products = append(w.Products[:i], w.Products[i+1:]...)
			return true
		}
	}
	return false
}

func (w *Wishlist) Clear() {
	w.Products = []primitive.ObjectID{}
}
