package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles carried on local account records.
const (
	RoleAdmin  = "admin"
	RoleVendor = "vendor"
)

// Admin is a staff member of the directory organization. The identity lives
// with the external provider; this record binds it to the admin role.
type Admin struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ProviderID string             `bson:"provider_id" json:"id"`
	Email      string             `bson:"email" json:"email"` // lowercase
	Name       string             `bson:"name" json:"name"`
	Role       string             `bson:"role" json:"role"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// Vendor is a resource-providing organization that signs in with a short
// vendor code. ProviderID stays nil until the first set-password.
type Vendor struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	VendorCode  string             `bson:"vendor_code" json:"vendor_id"` // 4 chars, uppercase
	Name        string             `bson:"name" json:"name"`
	ProviderID  *string            `bson:"provider_id,omitempty" json:"provider_id,omitempty"`
	PasswordSet bool               `bson:"password_set" json:"password_set"`
	Role        string             `bson:"role" json:"role"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
