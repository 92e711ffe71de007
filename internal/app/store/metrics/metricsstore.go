package metricsstore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of directory totals shown on the admin overview.
type Counts struct {
	Resources int64 `json:"resources"`
	Removed   int64 `json:"removed"`
	Pending   int64 `json:"pending"`
	Vendors   int64 `json:"vendors"`
	Admins    int64 `json:"admins"`
}

// FetchDirectoryCounts returns the high-level directory counts.
// A counter whose query fails stays 0.
func FetchDirectoryCounts(ctx context.Context, db *mongo.Database) Counts {
	var out Counts

	if n, err := db.Collection("resources").CountDocuments(ctx, bson.M{"removed": bson.M{"$ne": true}}); err == nil {
		out.Resources = n
	}
	if n, err := db.Collection("resources").CountDocuments(ctx, bson.M{"removed": true}); err == nil {
		out.Removed = n
	}
	if n, err := db.Collection("pending_resources").CountDocuments(ctx, bson.M{}); err == nil {
		out.Pending = n
	}
	if n, err := db.Collection("vendors").CountDocuments(ctx, bson.M{}); err == nil {
		out.Vendors = n
	}
	if n, err := db.Collection("admins").CountDocuments(ctx, bson.M{}); err == nil {
		out.Admins = n
	}

	return out
}
