// internal/app/store/resources/resourcestore.go
package resourcestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/contributor/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateOrgName = errors.New("a resource with this organization name already exists")
	ErrNotFound         = errors.New("resource not found")
)

// UpdateResult reports how many records a partial update matched and changed.
type UpdateResult struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("resources")}
}

// EnsureIndexes creates the unique organization index and the listing index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "org_name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_org_name_ci"),
		},
		{
			Keys: bson.D{{Key: "removed", Value: 1}, {Key: "org_name_ci", Value: 1}},
		},
	})
	return err
}

// Create inserts r, assigning its ID, folded org name and timestamps.
// CreatedAt is kept when the caller already set it.
func (s *Store) Create(ctx context.Context, r models.Resource) (models.Resource, error) {
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.OrgNameCI = text.Fold(r.OrgNameValue())
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = &now

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Resource{}, ErrDuplicateOrgName
		}
		return models.Resource{}, err
	}
	return r, nil
}

// GetByID returns a resource by its ID, removed or not.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Resource, error) {
	var r models.Resource
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Resource{}, ErrNotFound
		}
		return models.Resource{}, err
	}
	return r, nil
}

// GetByOrgName looks a resource up by organization name, ignoring case and
// diacritics.
func (s *Store) GetByOrgName(ctx context.Context, orgName string) (models.Resource, error) {
	var r models.Resource
	if err := s.c.FindOne(ctx, bson.M{"org_name_ci": text.Fold(orgName)}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Resource{}, ErrNotFound
		}
		return models.Resource{}, err
	}
	return r, nil
}

// List returns resources ordered by organization name. Removed resources are
// included only when includeRemoved is true.
func (s *Store) List(ctx context.Context, includeRemoved bool) ([]models.Resource, error) {
	filter := bson.M{}
	if !includeRemoved {
		filter["removed"] = bson.M{"$ne": true}
	}
	opts := options.Find().SetSort(bson.D{{Key: "org_name_ci", Value: 1}})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Resource{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial update: only non-nil fields are written.
// Returns ErrNotFound when no resource has the given ID.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, fields models.ResourceFields) (UpdateResult, error) {
	set, err := setDoc(fields)
	if err != nil {
		return UpdateResult{}, err
	}
	set["updated_at"] = time.Now().UTC()

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return UpdateResult{}, ErrDuplicateOrgName
		}
		return UpdateResult{}, err
	}
	if res.MatchedCount == 0 {
		return UpdateResult{}, ErrNotFound
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// SetRemoved soft-deletes a resource.
func (s *Store) SetRemoved(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"removed":    true,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertByOrgName creates a resource for fields' organization name or merges
// fields into the existing one. Fields absent from the payload are left
// untouched on an existing record.
func (s *Store) UpsertByOrgName(ctx context.Context, fields models.ResourceFields) (id primitive.ObjectID, created bool, err error) {
	set, err := setDoc(fields)
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	now := time.Now().UTC()
	set["updated_at"] = now

	filter := bson.M{"org_name_ci": text.Fold(fields.OrgNameValue())}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"removed":    false,
			"created_at": now,
		},
	}
	res, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	if res.UpsertedID != nil {
		oid, _ := res.UpsertedID.(primitive.ObjectID)
		return oid, true, nil
	}

	var existing struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := s.c.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&existing); err != nil {
		return primitive.NilObjectID, false, err
	}
	return existing.ID, false, nil
}

// setDoc converts the non-nil fields to a $set document, keeping the folded
// organization name in step with org_name.
func setDoc(fields models.ResourceFields) (bson.M, error) {
	raw, err := bson.Marshal(fields)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, err
	}
	if fields.OrgName != nil {
		set["org_name_ci"] = text.Fold(*fields.OrgName)
	}
	return set, nil
}
