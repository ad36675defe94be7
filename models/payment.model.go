package models

// Payment methods accepted at checkout
const (
	PaymentCard           = "card"
	PaymentPaypal         = "paypal"
	PaymentCashOnDelivery = "cash_on_delivery"
)

// PaymentInfo is the payment reference submitted with an order
type PaymentInfo struct {
	ID     string `bson:"id" json:"id" validate:"required"`
	Status string `bson:"status" json:"status" validate:"required"`
	Method string `bson:"method" json:"method" validate:"required,oneof=card paypal cash_on_delivery"`
}

type ShippingAddress struct {
	Street  string `bson:"street" json:"street" validate:"required"`
	City    string `bson:"city" json:"city" validate:"required"`
	State   string `bson:"state" json:"state" validate:"required"`
	ZipCode string `bson:"zipCode" json:"zipCode" validate:"required"`
	Country string `bson:"country" json:"country" validate:"required"`
}

// ShippingInfo is the delivery contact copied onto an order
type ShippingInfo struct {
	FirstName string          `bson:"firstName" json:"firstName" validate:"required"`
	LastName  string          `bson:"lastName" json:"lastName" validate:"required"`
	Email     string          `bson:"email" json:"email" validate:"required,email"`
	Phone     string          `bson:"phone" json:"phone" validate:"required"`
	Address   ShippingAddress `bson:"address" json:"address"`
}
