// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// State is a one-time CSRF token issued when a creator starts connecting
// their YouTube channel.
type State struct {
	State        string    `bson:"state"`
	CreatorEmail string    `bson:"creator_email"`
	ReturnURL    string    `bson:"return_url,omitempty"` // where to redirect after the callback
	ExpiresAt    time.Time `bson:"expires_at"`
	CreatedAt    time.Time `bson:"created_at"`
}

// Store manages OAuth2 state tokens in MongoDB.
type Store struct {
	c *mongo.Collection
}

// New creates a new OAuth state Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// Save stores a state token for creatorEmail until expiresAt.
func (s *Store) Save(ctx context.Context, state, creatorEmail, returnURL string, expiresAt time.Time) error {
	_, err := s.c.InsertOne(ctx, State{
		State:        state,
		CreatorEmail: creatorEmail,
		ReturnURL:    returnURL,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now().UTC(),
	})
	return err
}

// Consume checks that a state token exists and has not expired, and deletes
// it so it cannot be replayed. valid is false for unknown or expired tokens.
func (s *Store) Consume(ctx context.Context, state string) (st State, valid bool, err error) {
	err = s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)

	if err == mongo.ErrNoDocuments {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	return st, true, nil
}

// CleanupExpired removes expired state tokens.
// This is a backup for when TTL index cleanup is delayed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := s.c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
