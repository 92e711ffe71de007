package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/contributor/internal/app/system/validators"
	"github.com/dalemusser/contributor/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := make(map[string]bool)
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"resources", "pending_resources", "vendors", "admins", "audit_events"} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestValidators_RejectInvalid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	now := time.Now().UTC()
	tests := []struct {
		name string
		coll string
		doc  bson.M
	}{
		{"resource missing org_name_ci", "resources", bson.M{"removed": false, "created_at": now}},
		{"resource phone as string", "resources", bson.M{"org_name_ci": "x", "removed": false, "created_at": now, "phone": "573-555-0100"}},
		{"resource blank org_name", "resources", bson.M{"org_name": "   ", "org_name_ci": "", "removed": false, "created_at": now}},
		{"pending missing add", "pending_resources", bson.M{"submitted_at": now}},
		{"vendor lowercase code", "vendors", bson.M{"vendor_code": "ab12", "name": "Acme", "role": "vendor", "password_set": false}},
		{"vendor wrong role", "vendors", bson.M{"vendor_code": "AB12", "name": "Acme", "role": "admin", "password_set": false}},
		{"admin missing provider", "admins", bson.M{"email": "a@thecontributor.org", "role": "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc); err == nil {
				t.Errorf("expected validation error inserting into %s", tt.coll)
			}
		})
	}
}

func TestValidators_AcceptStoreRecords(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	// Fixtures fail the test on any insert error.
	fx := testutil.NewFixtures(t, db)
	fx.CreateResource(ctx, "Food Bank of Central Missouri")
	fx.CreateVendor(ctx, "AB12", "Acme Pantry")
	fx.CreateAdmin(ctx, "provider-1", "ops@thecontributor.org")
}

func TestAuditEvents_NoValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	if _, err := db.Collection("audit_events").InsertOne(ctx, bson.M{"anything": "goes"}); err != nil {
		t.Errorf("insert into audit_events failed: %v", err)
	}
}
