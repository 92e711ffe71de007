// internal/app/store/pending/pendingstore.go
package pendingstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/contributor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store holds submissions awaiting review. Records are inserted and deleted,
// never updated.
type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("pending submission not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("pending_resources")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "submitted_at", Value: -1}},
	})
	return err
}

// Create stages a submission.
func (s *Store) Create(ctx context.Context, p models.PendingSubmission) (models.PendingSubmission, error) {
	p.ID = primitive.NewObjectID()
	if p.SubmittedAt.IsZero() {
		p.SubmittedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.PendingSubmission{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.PendingSubmission, error) {
	var p models.PendingSubmission
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.PendingSubmission{}, ErrNotFound
		}
		return models.PendingSubmission{}, err
	}
	return p, nil
}

// List returns pending submissions, newest first.
func (s *Store) List(ctx context.Context) ([]models.PendingSubmission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.PendingSubmission{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a submission. Returns ErrNotFound if it was already gone.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
