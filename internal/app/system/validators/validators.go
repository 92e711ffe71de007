// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the directory collections (if missing) and attaches
// JSON-Schema validators. Servers without collMod support (some DocumentDB
// versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("resources", resourcesSchema())
	ensure("pending_resources", pendingSchema())
	ensure("vendors", vendorsSchema())
	ensure("admins", adminsSchema())

	// Written by the audit logger only; no validator.
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// listingProperties covers the editable listing fields shared by published
// and pending records.
func listingProperties() bson.M {
	str := bson.M{"bsonType": "string"}
	num := bson.M{"bsonType": bson.A{"double", "int", "long"}}
	return bson.M{
		"name":            str,
		"email":           str,
		"phone":           bson.M{"bsonType": bson.A{"long", "int"}, "minimum": 0},
		"org_name":        bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
		"address":         str,
		"city":            str,
		"state":           str,
		"zip":             str,
		"website":         str,
		"hours":           str,
		"services":        str,
		"requirements":    str,
		"category":        str,
		"bus_line":        str,
		"description":     str,
		"additional_info": str,
		"latitude":        num,
		"longitude":       num,
	}
}

func resourcesSchema() bson.M {
	props := listingProperties()
	props["org_name_ci"] = bson.M{"bsonType": "string"}
	props["removed"] = bson.M{"bsonType": "bool"}
	props["created_at"] = bson.M{"bsonType": "date"}
	props["updated_at"] = bson.M{"bsonType": "date"}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   bson.A{"org_name_ci", "removed", "created_at"},
			"properties": props,
		},
	}
}

func pendingSchema() bson.M {
	props := listingProperties()
	props["add"] = bson.M{"bsonType": "bool"}
	props["original_resource_id"] = bson.M{"bsonType": "objectId"}
	props["submitted_at"] = bson.M{"bsonType": "date"}
	props["submitted_by"] = bson.M{"bsonType": "string"}
	props["submitter_email"] = bson.M{"bsonType": "string"}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   bson.A{"add", "submitted_at"},
			"properties": props,
		},
	}
}

func vendorsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"vendor_code", "name", "role", "password_set"},
			"properties": bson.M{
				"vendor_code":  bson.M{"bsonType": "string", "pattern": "^[A-Z0-9]{4}$"},
				"name":         bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"provider_id":  bson.M{"bsonType": "string"},
				"password_set": bson.M{"bsonType": "bool"},
				"role":         bson.M{"enum": bson.A{"vendor"}},
			},
		},
	}
}

func adminsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"provider_id", "email", "role"},
			"properties": bson.M{
				"provider_id": bson.M{"bsonType": "string", "minLength": 1},
				"email":       bson.M{"bsonType": "string", "minLength": 3},
				"name":        bson.M{"bsonType": "string"},
				"role":        bson.M{"enum": bson.A{"admin"}},
			},
		},
	}
}
