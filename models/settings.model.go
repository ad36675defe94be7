package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SettingsKey is the unique key of the only settings document.
const SettingsKey = "global"

// Settings is the site-wide configuration. Exactly one document exists.
type Settings struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Key                 string             `bson:"key" json:"-"`
	SiteName            string             `bson:"siteName" json:"siteName"`
	SiteDescription     string             `bson:"siteDescription" json:"siteDescription"`
	ContactEmail        string             `bson:"contactEmail" json:"contactEmail"`
	PhoneNumber         string             `bson:"phoneNumber" json:"phoneNumber"`
	Address             string             `bson:"address" json:"address"`
	GSTNumber           string             `bson:"gstNumber" json:"gstNumber"`
	EnableNotifications bool               `bson:"enableNotifications" json:"enableNotifications"`
	MaintenanceMode     bool               `bson:"maintenanceMode" json:"maintenanceMode"`
	TaxRate             float64            `bson:"taxRate" json:"taxRate"`
	ShippingFee         float64            `bson:"shippingFee" json:"shippingFee"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func DefaultSettings() Settings {
	return Settings{
		Key:                 SettingsKey,
		SiteName:            "Goodluck Fashion",
		SiteDescription:     "Premium clothing and accessories",
		ContactEmail:        "contact@goodluckfashion.com",
		PhoneNumber:         "+1 (555) 123-4567",
		Address:             "123 Fashion Street, New York, NY 10001",
		GSTNumber:           "GSTIN: 22AAAAA0000A1Z5",
		EnableNotifications: true,
		MaintenanceMode:     false,
		TaxRate:             8.5,
		ShippingFee:         5.99,
	}
}

// SettingsUpdate carries a partial settings change; nil fields are left untouched.
type SettingsUpdate struct {
	SiteName            *string  `json:"siteName,omitempty"`
	SiteDescription     *string  `json:"siteDescription,omitempty"`
	ContactEmail        *string  `json:"contactEmail,omitempty" validate:"omitempty,email"`
	PhoneNumber         *string  `json:"phoneNumber,omitempty"`
	Address             *string  `json:"address,omitempty"`
	GSTNumber           *string  `json:"gstNumber,omitempty"`
	EnableNotifications *bool    `json:"enableNotifications,omitempty"`
	MaintenanceMode     *bool    `json:"maintenanceMode,omitempty"`
	TaxRate             *float64 `json:"taxRate,omitempty" validate:"omitempty,gte=0,lte=100"`
	ShippingFee         *float64 `json:"shippingFee,omitempty" validate:"omitempty,gte=0"`
}

func (u SettingsUpdate) Apply(s *Settings) {
	if u.SiteName != nil {
		s.SiteName = *u.SiteName
	}
	if u.SiteDescription != nil {
		s.SiteDescription = *u.SiteDescription
	}
	if u.ContactEmail != nil {
		s.ContactEmail = *u.ContactEmail
	}
	if u.PhoneNumber != nil {
		s.PhoneNumber = *u.PhoneNumber
	}
	if u.Address != nil {
		s.Address = *u.Address
	}
	if u.GSTNumber != nil {
		s.GSTNumber = *u.GSTNumber
	}
	if u.EnableNotifications != nil {
		s.EnableNotifications = *u.EnableNotifications
	}
	if u.MaintenanceMode != nil {
		s.MaintenanceMode = *u.MaintenanceMode
	}
	if u.TaxRate != nil {
		s.TaxRate = *u.TaxRate
	}
	if u.ShippingFee != nil {
		s.ShippingFee = *u.ShippingFee
	}
}
