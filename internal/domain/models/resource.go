package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResourceFields is the editable body of a directory listing. Every field is
// optional at the storage level; nil means "absent" and is never written.
type ResourceFields struct {
	Name    *string `bson:"name,omitempty" json:"name,omitempty"`
	Email   *string `bson:"email,omitempty" json:"email,omitempty"`
	Phone   *int64  `bson:"phone,omitempty" json:"phone,omitempty"` // digits only
	OrgName *string `bson:"org_name,omitempty" json:"org_name,omitempty"`

	Address *string `bson:"address,omitempty" json:"address,omitempty"`
	City    *string `bson:"city,omitempty" json:"city,omitempty"`
	State   *string `bson:"state,omitempty" json:"state,omitempty"`
	Zip     *string `bson:"zip,omitempty" json:"zip,omitempty"`

	Website      *string `bson:"website,omitempty" json:"website,omitempty"`
	Hours        *string `bson:"hours,omitempty" json:"hours,omitempty"`
	Services     *string `bson:"services,omitempty" json:"services,omitempty"`
	Requirements *string `bson:"requirements,omitempty" json:"requirements,omitempty"`
	Category     *string `bson:"category,omitempty" json:"category,omitempty"`
	BusLine      *string `bson:"bus_line,omitempty" json:"bus_line,omitempty"`

	Description    *string `bson:"description,omitempty" json:"description,omitempty"`
	AdditionalInfo *string `bson:"additional_info,omitempty" json:"additional_info,omitempty"`

	Latitude  *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

// ResourceFieldNames is the set of JSON/bson keys a ResourceFields carries.
// Partial updates naming any other key are rejected.
var ResourceFieldNames = map[string]bool{
	"name":            true,
	"email":           true,
	"phone":           true,
	"org_name":        true,
	"address":         true,
	"city":            true,
	"state":           true,
	"zip":             true,
	"website":         true,
	"hours":           true,
	"services":        true,
	"requirements":    true,
	"category":        true,
	"bus_line":        true,
	"description":     true,
	"additional_info": true,
	"latitude":        true,
	"longitude":       true,
}

// HasAddress reports whether a street-level address is present.
func (f ResourceFields) HasAddress() bool {
	return f.Address != nil && *f.Address != ""
}

// HasCoordinates reports whether both latitude and longitude are set.
func (f ResourceFields) HasCoordinates() bool {
	return f.Latitude != nil && f.Longitude != nil
}

// OrgNameValue returns the organization name or "" when absent.
func (f ResourceFields) OrgNameValue() string {
	if f.OrgName == nil {
		return ""
	}
	return *f.OrgName
}

// Resource is a published directory listing.
type Resource struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ResourceFields `bson:",inline"`
	OrgNameCI      string `bson:"org_name_ci" json:"-"` // lowercase, diacritics-stripped

	// Removed hides the listing from default queries. Listings are never
	// hard-deleted.
	Removed bool `bson:"removed" json:"removed"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// PendingSubmission is an untrusted form submission awaiting review.
// It is created on ingest and deleted on approve or deny; never edited.
type PendingSubmission struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ResourceFields `bson:",inline"`

	// Add is true for a new listing, false for an edit of an existing one.
	Add                bool                `bson:"add" json:"add"`
	OriginalResourceID *primitive.ObjectID `bson:"original_resource_id,omitempty" json:"original_resource_id,omitempty"`

	SubmittedAt    time.Time `bson:"submitted_at" json:"submitted_at"`
	SubmittedBy    string    `bson:"submitted_by,omitempty" json:"submitted_by,omitempty"`
	SubmitterEmail string    `bson:"submitter_email,omitempty" json:"submitter_email,omitempty"`
}

// NotifyAddress returns where status emails for this submission go: the
// submitter contact when given, else the listing email.
func (p PendingSubmission) NotifyAddress() string {
	if p.SubmitterEmail != "" {
		return p.SubmitterEmail
	}
	if p.Email != nil {
		return *p.Email
	}
	return ""
}
