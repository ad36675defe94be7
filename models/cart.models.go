package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartItem represents an item in the cart. Price is the catalog price at the time
// the line was created.
type CartItem struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Size     string             `bson:"size" json:"size"`
	Color    string             `bson:"color" json:"color"`
	Price    float64            `bson:"price" json:"price"`
}

// Cart represents a user's shopping cart. At most one line exists per
// (product, size, color).
type Cart struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	User       primitive.ObjectID `bson:"user" json:"user"`
	Items      []CartItem         `bson:"items" json:"items"`
	TotalItems int                `bson:"totalItems" json:"totalItems"`
	TotalPrice float64            `bson:"totalPrice" json:"totalPrice"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func NewCart(userID primitive.ObjectID) *Cart {
	return &Cart{User: userID, Items: []CartItem{}}
}

// LineQuantity returns the quantity already held for the variant, or 0.
func (c *Cart) LineQuantity(productID primitive.ObjectID, size, color string) int {
	if i := c.findLine(productID, size, color); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// AddItem merges qty into the matching line or appends a new line priced at price.
func (c *Cart) AddItem(productID primitive.ObjectID, qty int, size, color string, price float64) CartItem {
	if i := c.findLine(productID, size, color); i >= 0 {
		c.Items[i].Quantity += qty
		c.Recalculate()
		return c.Items[i]
	}
	item := CartItem{
		ID:       primitive.NewObjectID(),
		Product:  productID,
		Quantity: qty,
		Size:     size,
		Color:    color,
		Price:    price,
	}
	c.Items = append(c.Items, item)
	c.Recalculate()
	return item
}

// ItemIndex returns the position of the line with itemID, or -1.
func (c *Cart) ItemIndex(itemID primitive.ObjectID) int {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) RemoveItem(itemID primitive.ObjectID) bool {
	i := c.ItemIndex(itemID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.Recalculate()
	return true
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Recalculate()
}

// Recalculate refreshes TotalItems and TotalPrice from the lines.
func (c *Cart) Recalculate() {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	c.TotalItems = 0
	c.TotalPrice = 0
	for _, item := range c.Items {
		c.TotalItems += item.Quantity
		c.TotalPrice += item.Price * float64(item.Quantity)
	}
}

func (c *Cart) findLine(productID primitive.ObjectID, size, color string) int {
	for i, item := range c.Items {
		if item.Product == productID && item.Size == size && item.Color == color {
			return i
		}
	}
	return -1
}
