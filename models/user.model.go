package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Address represents a user's postal address
type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	ZipCode string `bson:"zipCode,omitempty" json:"zipCode,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

// User represents a user in the system. Token fields only ever hold SHA-256 hashes.
type User struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name                    string             `bson:"name" json:"name"`
	Email                   string             `bson:"email" json:"email"`
	Password                string             `bson:"password,omitempty" json:"-"`
	Phone                   string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address                 Address            `bson:"address" json:"address"`
	Avatar                  string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Role                    string             `bson:"role" json:"role"`
	IsEmailVerified         bool               `bson:"isEmailVerified" json:"isEmailVerified"`
	EmailVerificationToken  string             `bson:"emailVerificationToken,omitempty" json:"-"`
	EmailVerificationExpire *time.Time         `bson:"emailVerificationExpire,omitempty" json:"-"`
	ResetPasswordToken      string             `bson:"resetPasswordToken,omitempty" json:"-"`
	ResetPasswordExpire     *time.Time         `bson:"resetPasswordExpire,omitempty" json:"-"`
	CreatedAt               time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// SetVerificationToken stores the hash of a verification token valid until expires.
func (u *User) SetVerificationToken(hash string, expires time.Time) {
	u.EmailVerificationToken = hash
	u.EmailVerificationExpire = &expires
}

func (u *User) ClearVerificationToken() {
	u.EmailVerificationToken = ""
	u.EmailVerificationExpire = nil
}

// SetResetToken stores the hash of a password reset token valid until expires.
func (u *User) SetResetToken(hash string, expires time.Time) {
	u.ResetPasswordToken = hash
	u.ResetPasswordExpire = &expires
}

func (u *User) ClearResetToken() {
	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
}
