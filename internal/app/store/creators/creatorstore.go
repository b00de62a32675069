// internal/app/store/creators/creatorstore.go
package creatorstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/vidcollab/internal/app/system/tokencrypt"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNoCredentials is returned when the creator exists but has never
// connected a channel (or the connection was revoked).
var ErrNoCredentials = errors.New("creator has no stored refresh credential")

// Store persists creators and seals their channel credentials.
type Store struct {
	c      *mongo.Collection
	sealer *tokencrypt.Sealer
}

func New(db *mongo.Database, sealer *tokencrypt.Sealer) *Store {
	return &Store{c: db.Collection("creators"), sealer: sealer}
}

// Ensure returns the creator with email, creating an empty record if needed.
func (s *Store) Ensure(ctx context.Context, email string) (models.Creator, error) {
	now := time.Now().UTC()
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c models.Creator
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$setOnInsert": bson.M{"email": email, "created_at": now, "updated_at": now}},
		opts,
	).Decode(&c)
	return c, err
}

// GetByEmail loads a creator. Returns mongo.ErrNoDocuments when absent.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.Creator, error) {
	var c models.Creator
	err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&c)
	return c, err
}

// Credentials returns the unsealed credential pair for email.
func (s *Store) Credentials(ctx context.Context, email string) (models.Credentials, error) {
	c, err := s.GetByEmail(ctx, email)
	if err != nil {
		return models.Credentials{}, err
	}
	if !c.HasCredentials() {
		return models.Credentials{}, ErrNoCredentials
	}
	refresh, err := s.sealer.Open(c.RefreshToken)
	if err != nil {
		return models.Credentials{}, err
	}
	access, err := s.sealer.Open(c.AccessToken)
	if err != nil {
		return models.Credentials{}, err
	}
	cred := models.Credentials{AccessToken: access, RefreshToken: refresh}
	if c.TokenExpiry != nil {
		cred.Expiry = *c.TokenExpiry
	}
	return cred, nil
}

// SaveCredentials seals and stores the pair, creating the creator if needed.
// An empty RefreshToken keeps the one already on file.
func (s *Store) SaveCredentials(ctx context.Context, email string, cred models.Credentials) error {
	now := time.Now().UTC()
	set := bson.M{"updated_at": now}

	access, err := s.sealer.Seal(cred.AccessToken)
	if err != nil {
		return err
	}
	set["access_token"] = access
	if cred.RefreshToken != "" {
		refresh, err := s.sealer.Seal(cred.RefreshToken)
		if err != nil {
			return err
		}
		set["refresh_token"] = refresh
	}
	if !cred.Expiry.IsZero() {
		set["token_expiry"] = cred.Expiry.UTC()
	}

	_, err = s.c.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"email": email, "created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// MarkConnected stamps the time a channel connection was completed.
func (s *Store) MarkConnected(ctx context.Context, email string) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx, bson.M{"email": email},
		bson.M{"$set": bson.M{"connected_at": now, "updated_at": now}})
	return err
}

// ClearCredentials forgets the stored credential pair.
func (s *Store) ClearCredentials(ctx context.Context, email string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{
			"$unset": bson.M{"access_token": "", "refresh_token": "", "token_expiry": "", "connected_at": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
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

// SetPrimaryEditor records the legacy single-editor affiliation.
// An empty editor clears it.
func (s *Store) SetPrimaryEditor(ctx context.Context, email, editor string) error {
	update := bson.M{"$set": bson.M{"primary_editor": editor, "updated_at": time.Now().UTC()}}
	if editor == "" {
		update = bson.M{
			"$unset": bson.M{"primary_editor": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		}
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
