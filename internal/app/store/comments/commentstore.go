// internal/app/store/comments/commentstore.go
package commentstore

import (
	"context"
	"time"

	"github.com/dalemusser/vidcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("video_comments")}
}

func (s *Store) Create(ctx context.Context, c models.VideoComment) (models.VideoComment, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.CreatedAt = now
	c.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, c)
	return c, err
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.VideoComment, error) {
	var c models.VideoComment
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	return c, err
}

// ListByVideo returns a video's comments in the order they were written.
func (s *Store) ListByVideo(ctx context.Context, videoID primitive.ObjectID) ([]models.VideoComment, error) {
	cur, err := s.c.Find(ctx, bson.M{"video_id": videoID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.VideoComment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update changes the text and/or resolved flag. Nil arguments are left alone.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, text *string, resolved *bool) (models.VideoComment, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if text != nil {
		set["text"] = *text
	}
	if resolved != nil {
		set["resolved"] = *resolved
	}
	var c models.VideoComment
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	return c, err
}

// Delete removes a comment and its direct replies.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	_, err = s.c.DeleteMany(ctx, bson.M{"parent_comment_id": id})
	return err
}

func (s *Store) DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"video_id": videoID})
	return err
}
