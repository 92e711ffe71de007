// internal/app/store/vendors/vendorstore.go
package vendorstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/contributor/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateCode = errors.New("a vendor with this vendor ID already exists")
	ErrProviderInUse = errors.New("identity is already bound to another vendor")
	ErrNotFound      = errors.New("vendor not found")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("vendors")}
}

// EnsureIndexes makes vendor codes unique and, once bound, provider ids.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "vendor_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_vendor_code"),
		},
		{
			Keys: bson.D{{Key: "provider_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_vendor_provider_id").
				SetPartialFilterExpression(bson.M{"provider_id": bson.M{"$exists": true}}),
		},
	})
	return err
}

func prepare(v *models.Vendor, now time.Time) {
	v.ID = primitive.NewObjectID()
	v.Role = models.RoleVendor
	v.ProviderID = nil
	v.PasswordSet = false
	v.CreatedAt = now
	v.UpdatedAt = now
}

// Create inserts a vendor without a password.
func (s *Store) Create(ctx context.Context, v models.Vendor) (models.Vendor, error) {
	prepare(&v, time.Now().UTC())
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Vendor{}, ErrDuplicateCode
		}
		return models.Vendor{}, err
	}
	return v, nil
}

// CreateMany inserts vendors in one batch. Callers check codes beforehand;
// a duplicate that slips through still surfaces as ErrDuplicateCode.
func (s *Store) CreateMany(ctx context.Context, vs []models.Vendor) ([]models.Vendor, error) {
	if len(vs) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	docs := make([]any, len(vs))
	for i := range vs {
		prepare(&vs[i], now)
		docs[i] = vs[i]
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		if wafflemongo.IsDup(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return vs, nil
}

func (s *Store) GetByCode(ctx context.Context, code string) (models.Vendor, error) {
	return s.findOne(ctx, bson.M{"vendor_code": code})
}

func (s *Store) GetByProviderID(ctx context.Context, providerID string) (models.Vendor, error) {
	return s.findOne(ctx, bson.M{"provider_id": providerID})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Vendor, error) {
	var v models.Vendor
	if err := s.c.FindOne(ctx, filter).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Vendor{}, ErrNotFound
		}
		return models.Vendor{}, err
	}
	return v, nil
}

// ExistingCodes returns which of codes already belong to a vendor.
func (s *Store) ExistingCodes(ctx context.Context, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	opts := options.Find().
		SetProjection(bson.M{"vendor_code": 1}).
		SetSort(bson.D{{Key: "vendor_code", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"vendor_code": bson.M{"$in": codes}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Code string `bson:"vendor_code"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Code)
	}
	return out, nil
}

// List returns every vendor ordered by code.
func (s *Store) List(ctx context.Context) ([]models.Vendor, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "vendor_code", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Vendor{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BindProvider records the identity-provider user for a vendor and marks
// its password as set.
func (s *Store) BindProvider(ctx context.Context, code, providerID string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"vendor_code": code}, bson.M{"$set": bson.M{
		"provider_id":  providerID,
		"password_set": true,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrProviderInUse
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a vendor by code.
func (s *Store) Delete(ctx context.Context, code string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"vendor_code": code})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
