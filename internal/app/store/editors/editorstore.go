// internal/app/store/editors/editorstore.go
package editorstore

import (
	"context"
	"time"

	"github.com/dalemusser/vidcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("editors")}
}

// Register creates the editor if it does not exist and returns it either way.
func (s *Store) Register(ctx context.Context, email string) (models.Editor, error) {
	now := time.Now().UTC()
	var e models.Editor
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$setOnInsert": bson.M{
			"email":      email,
			"rating":     0,
			"people":     0,
			"created_at": now,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&e)
	return e, err
}

// GetByEmail returns mongo.ErrNoDocuments for unknown editors.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Editor, error) {
	var e models.Editor
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&e)
	return e, err
}

// List returns every registered editor ordered by email.
func (s *Store) List(ctx context.Context) ([]models.Editor, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Editor
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByEmails returns the editors among emails that exist.
func (s *Store) ListByEmails(ctx context.Context, emails []string) ([]models.Editor, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"email": bson.M{"$in": emails}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Editor
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddRating adds one rating to the editor's aggregate.
func (s *Store) AddRating(ctx context.Context, email string, rating int) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$inc": bson.M{"rating": rating, "people": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
