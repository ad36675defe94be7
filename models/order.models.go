package models

import (
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses
const (
	StatusProcessing = "Processing"
	StatusShipped    = "Shipped"
	StatusDelivered  = "Delivered"
	StatusCancelled  = "Cancelled"
	StatusReturned   = "Returned"
)

// Pricing policy: flat 18% tax, free shipping from 500, otherwise a flat fee.
const (
	TaxRate               = 0.18
	FreeShippingThreshold = 500.0
	FlatShippingFee       = 100.0
)

var (
	ErrAlreadyDelivered = errors.New("order has already been delivered")
	ErrInvalidStatus    = errors.New("invalid order status")
)

func ValidStatus(status string) bool {
	switch status {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// OrderItem is a snapshot of a product variant taken when the order was placed.
type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Name     string             `bson:"name" json:"name"`
	Price    float64            `bson:"price" json:"price"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Size     string             `bson:"size" json:"size"`
	Color    string             `bson:"color" json:"color"`
	Image    string             `bson:"image" json:"image"`
}

// SnapshotItem copies the product data an order line needs.
func SnapshotItem(p *Product, qty int, size, color string) OrderItem {
	return OrderItem{
		Product:  p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Quantity: qty,
		Size:     size,
		Color:    color,
		Image:    p.FirstImageURL(),
	}
}

// Order represents a user's order
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	User           primitive.ObjectID `bson:"user" json:"user"`
	OrderItems     []OrderItem        `bson:"orderItems" json:"orderItems"`
	ShippingInfo   ShippingInfo       `bson:"shippingInfo" json:"shippingInfo"`
	PaymentInfo    PaymentInfo        `bson:"paymentInfo" json:"paymentInfo"`
	ItemsPrice     float64            `bson:"itemsPrice" json:"itemsPrice"`
	TaxPrice       float64            `bson:"taxPrice" json:"taxPrice"`
	ShippingPrice  float64            `bson:"shippingPrice" json:"shippingPrice"`
	TotalPrice     float64            `bson:"totalPrice" json:"totalPrice"`
	OrderStatus    string             `bson:"orderStatus" json:"orderStatus"`
	DeliveredAt    *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	TrackingNumber string             `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func CalculateTax(itemsPrice float64) float64 {
	return math.Round(itemsPrice * TaxRate)
}

func CalculateShipping(itemsPrice float64) float64 {
	if itemsPrice >= FreeShippingThreshold {
		return 0
	}
	return FlatShippingFee
}

// ApplyPricing derives every price field from the order lines.
func (o *Order) ApplyPricing() {
	items := 0.0
	for _, item := range o.OrderItems {
		items += item.Price * float64(item.Quantity)
	}
	o.ItemsPrice = items
	o.TaxPrice = CalculateTax(items)
	o.ShippingPrice = CalculateShipping(items)
	o.SyncTotal()
}

// SyncTotal keeps TotalPrice equal to the sum of its components. Run before every save.
func (o *Order) SyncTotal() {
	o.TotalPrice = o.ItemsPrice + o.TaxPrice + o.ShippingPrice
}

// IsOwnedBy reports whether userID placed the order.
func (o *Order) IsOwnedBy(userID primitive.ObjectID) bool {
	return o.User == userID
}

// StatusEffects lists what the caller must do after a status change was applied.
type StatusEffects struct {
	Delete         bool // the order is cancelled and must be removed instead of saved
	DecrementStock bool // each line's stock is deducted
	Notify         bool // the owner is told about the new status
}

// ApplyStatus moves the order to next. A delivered order only changes when force is
// set; leaving Delivered through force clears DeliveredAt. Cancelled is never stored:
// the returned effects ask the caller to delete the order.
func (o *Order) ApplyStatus(next string, force bool, now time.Time) (StatusEffects, error) {
	var fx StatusEffects
	if o.OrderStatus == StatusDelivered && !force {
		return fx, ErrAlreadyDelivered
	}
	if !ValidStatus(next) {
		return fx, ErrInvalidStatus
	}
	if next == StatusCancelled {
		fx.Delete = true
		return fx, nil
	}

	fx.DecrementStock = next == StatusShipped
	o.OrderStatus = next
	if next == StatusDelivered {
		o.DeliveredAt = &now
	} else if force && o.DeliveredAt != nil {
		o.DeliveredAt = nil
	}
	o.SyncTotal()
	fx.Notify = true
	return fx, nil
}
