// internal/app/store/uploadlocks/lockstore.go
package uploadlockstore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrLocked is returned when another publish holds the video's lock.
var ErrLocked = errors.New("upload already in progress for this video")

// Lock is one held upload lock. The video id is the document _id, so the
// primary key index makes acquisition atomic.
type Lock struct {
	VideoID    primitive.ObjectID `bson:"_id"`
	Owner      string             `bson:"owner"`
	AcquiredAt time.Time          `bson:"acquired_at"`
	ExpiresAt  time.Time          `bson:"expires_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("upload_locks")}
}

// Acquire takes the lock for videoID on behalf of owner for ttl.
// An expired lock left behind by a crashed publish is taken over.
func (s *Store) Acquire(ctx context.Context, videoID primitive.ObjectID, owner string, ttl time.Duration) error {
	now := time.Now().UTC()
	lock := Lock{VideoID: videoID, Owner: owner, AcquiredAt: now, ExpiresAt: now.Add(ttl)}

	_, err := s.c.InsertOne(ctx, lock)
	if err == nil {
		return nil
	}
	if !wafflemongo.IsDup(err) {
		return err
	}

	res, err := s.c.ReplaceOne(ctx,
		bson.M{"_id": videoID, "expires_at": bson.M{"$lte": now}},
		lock,
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrLocked
	}
	return nil
}

// Release drops the lock if owner still holds it.
func (s *Store) Release(ctx context.Context, videoID primitive.ObjectID, owner string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": videoID, "owner": owner})
	return err
}

// CleanupExpired removes locks past their expiry. The TTL index does the
// same thing eventually; this runs on a schedule as a backup.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now().UTC()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
