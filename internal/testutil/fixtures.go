package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/contributor/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// CreateResource inserts a published listing for orgName with the
// required fields filled in.
func (f *Fixtures) CreateResource(ctx context.Context, orgName string) models.Resource {
	f.t.Helper()

	res := models.Resource{
		ID: primitive.NewObjectID(),
		ResourceFields: models.ResourceFields{
			Name:    Ptr("Test Contact"),
			Email:   Ptr("contact@example.org"),
			Phone:   Ptr(int64(5735550100)),
			OrgName: Ptr(orgName),
			City:    Ptr("Columbia"),
			State:   Ptr("MO"),
		},
		OrgNameCI: text.Fold(orgName),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("resources").InsertOne(ctx, res); err != nil {
		f.t.Fatalf("failed to create resource: %v", err)
	}
	return res
}

// CreatePending inserts a queued submission.
func (f *Fixtures) CreatePending(ctx context.Context, p models.PendingSubmission) models.PendingSubmission {
	f.t.Helper()

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.SubmittedAt.IsZero() {
		p.SubmittedAt = time.Now().UTC()
	}
	if _, err := f.db.Collection("pending_resources").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create pending submission: %v", err)
	}
	return p
}

// CreateVendor inserts a vendor with no password set.
func (f *Fixtures) CreateVendor(ctx context.Context, code, name string) models.Vendor {
	f.t.Helper()

	now := time.Now().UTC()
	v := models.Vendor{
		ID:         primitive.NewObjectID(),
		VendorCode: code,
		Name:       name,
		Role:       models.RoleVendor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("vendors").InsertOne(ctx, v); err != nil {
		f.t.Fatalf("failed to create vendor: %v", err)
	}
	return v
}

// CreateAdmin inserts an admin record bound to providerID.
func (f *Fixtures) CreateAdmin(ctx context.Context, providerID, email string) models.Admin {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Admin{
		ID:         primitive.NewObjectID(),
		ProviderID: providerID,
		Email:      email,
		Name:       "Test Admin",
		Role:       models.RoleAdmin,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("admins").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create admin: %v", err)
	}
	return a
}
