// internal/app/store/videos/videostore.go
package videostore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/vidcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrStatusChanged means the video left the status the caller expected.
	ErrStatusChanged = errors.New("video status changed concurrently")
	// ErrAlreadyPublished means another writer recorded a youtube_id first.
	ErrAlreadyPublished = errors.New("video already has a youtube id")
	// ErrAlreadyRated means the video was rated before.
	ErrAlreadyRated = errors.New("video already rated")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("videos")}
}

// Update is a partial write. Nil fields are left untouched.
type Update struct {
	Title         *string
	Description   *string
	Tags          *[]string
	Category      *string
	Privacy       *models.Privacy
	EditedBy      *string
	FilePath      *string
	ThumbnailPath *string
	Status        *models.VideoStatus
}

func (u Update) set(now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Tags != nil {
		set["tags"] = *u.Tags
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.Privacy != nil {
		set["privacy"] = *u.Privacy
	}
	if u.EditedBy != nil {
		set["edited_by"] = *u.EditedBy
	}
	if u.FilePath != nil {
		set["file_path"] = *u.FilePath
	}
	if u.ThumbnailPath != nil {
		set["thumbnail_path"] = *u.ThumbnailPath
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	return set
}

// Create inserts a new video and returns it with its id.
func (s *Store) Create(ctx context.Context, v models.Video) (models.Video, error) {
	now := time.Now().UTC()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	if v.Status == "" {
		v.Status = models.VideoDraft
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	v.CreatedAt = now
	v.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, v)
	return v, err
}

// GetByID returns mongo.ErrNoDocuments for unknown ids.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Video, error) {
	var v models.Video
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	return v, err
}

// ListByCreator returns the creator's videos, newest first.
func (s *Store) ListByCreator(ctx context.Context, creator string) ([]models.Video, error) {
	return s.find(ctx, bson.M{"creator_email": creator})
}

// ListByIDs returns the videos among ids, newest first.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// Apply writes u if the video is still in status expect.
func (s *Store) Apply(ctx context.Context, id primitive.ObjectID, expect models.VideoStatus, u Update) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": expect},
		bson.M{"$set": u.set(time.Now().UTC())},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStatusChanged
	}
	return nil
}

// SetStatus is a compare-and-set on the status field.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, from, to models.VideoStatus) error {
	return s.Apply(ctx, id, from, Update{Status: &to})
}

// MarkPublished records the external id and the published status in one
// write. It only succeeds for a video that has no youtube_id yet.
func (s *Store) MarkPublished(ctx context.Context, id primitive.ObjectID, youtubeID string) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "youtube_id": nil},
		bson.M{"$set": bson.M{
			"youtube_id":   youtubeID,
			"status":       models.VideoPublished,
			"published_at": now,
			"updated_at":   now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrAlreadyPublished
	}
	return nil
}

// SetRating stores the creator's rating once.
func (s *Store) SetRating(ctx context.Context, id primitive.ObjectID, rating int) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "rating": bson.M{"$in": bson.A{0, nil}}},
		bson.M{"$set": bson.M{"rating": rating, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrAlreadyRated
	}
	return nil
}

// Delete removes the video document.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Video, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Video
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
