// internal/app/store/admins/adminstore.go
package adminstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/contributor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("admin not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("admins")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "provider_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_admin_provider_id"),
	})
	return err
}

// Upsert creates or refreshes the admin bound to a.ProviderID.
func (s *Store) Upsert(ctx context.Context, a models.Admin) (models.Admin, error) {
	now := time.Now().UTC()
	a.Role = models.RoleAdmin

	filter := bson.M{"provider_id": a.ProviderID}
	update := bson.M{
		"$set": bson.M{
			"email":      a.Email,
			"name":       a.Name,
			"role":       a.Role,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.Admin
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		return models.Admin{}, err
	}
	return out, nil
}

// GetByProviderID returns the admin bound to an identity-provider user id.
func (s *Store) GetByProviderID(ctx context.Context, providerID string) (models.Admin, error) {
	var a models.Admin
	if err := s.c.FindOne(ctx, bson.M{"provider_id": providerID}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Admin{}, ErrNotFound
		}
		return models.Admin{}, err
	}
	return a, nil
}
