// internal/app/store/assignments/assignmentstore.go
package assignmentstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/vidcollab/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStatusChanged is returned by SetStatus when the stored status no longer
// matches the one the caller read.
var ErrStatusChanged = errors.New("assignment status changed concurrently")

// Store persists video assignments. One document per (video_id, editor_email, role).
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("video_assignments")}
}

// Upsert creates the assignment or resets an existing one to "assigned"
// with fresh notes and assigned_at.
func (s *Store) Upsert(ctx context.Context, a models.VideoAssignment) (models.VideoAssignment, error) {
	now := time.Now().UTC()
	filter := bson.M{"video_id": a.VideoID, "editor_email": a.EditorEmail, "role": a.Role}
	update := bson.M{
		"$set": bson.M{
			"creator_email": a.CreatorEmail,
			"task_status":   models.TaskAssigned,
			"notes":         a.Notes,
			"assigned_at":   now,
			"updated_at":    now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var out models.VideoAssignment
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if err != nil && wafflemongo.IsDup(err) {
		err = s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	}
	return out, err
}

// GetByID returns mongo.ErrNoDocuments for unknown ids.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.VideoAssignment, error) {
	var a models.VideoAssignment
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	return a, err
}

// ListByVideo returns the video's assignments, oldest first.
func (s *Store) ListByVideo(ctx context.Context, videoID primitive.ObjectID) ([]models.VideoAssignment, error) {
	return s.find(ctx, bson.M{"video_id": videoID},
		options.Find().SetSort(bson.D{{Key: "assigned_at", Value: 1}}))
}

// ListByEditor returns every assignment held by editor, newest first.
func (s *Store) ListByEditor(ctx context.Context, editor string) ([]models.VideoAssignment, error) {
	return s.find(ctx, bson.M{"editor_email": editor},
		options.Find().SetSort(bson.D{{Key: "assigned_at", Value: -1}}))
}

// ListForEditorOnVideo returns the editor's assignments (one per role) on a video.
func (s *Store) ListForEditorOnVideo(ctx context.Context, videoID primitive.ObjectID, editor string) ([]models.VideoAssignment, error) {
	return s.find(ctx, bson.M{"video_id": videoID, "editor_email": editor}, nil)
}

// Counts returns how many assignments the video has and how many are completed.
func (s *Store) Counts(ctx context.Context, videoID primitive.ObjectID) (total, completed int64, err error) {
	total, err = s.c.CountDocuments(ctx, bson.M{"video_id": videoID})
	if err != nil || total == 0 {
		return total, 0, err
	}
	completed, err = s.c.CountDocuments(ctx, bson.M{"video_id": videoID, "task_status": models.TaskCompleted})
	return total, completed, err
}

// SetStatus moves one assignment from -> to. notes replaces the notes when non-nil.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, from, to models.TaskStatus, notes *string) error {
	set := bson.M{"task_status": to, "updated_at": time.Now().UTC()}
	if notes != nil {
		set["notes"] = *notes
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "task_status": from}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStatusChanged
	}
	return nil
}

// CompleteForEditor marks all of the editor's assignments on the video completed.
func (s *Store) CompleteForEditor(ctx context.Context, videoID primitive.ObjectID, editor string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"video_id": videoID, "editor_email": editor},
		bson.M{"$set": bson.M{"task_status": models.TaskCompleted, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Delete hard-deletes an assignment. deleted is false when it did not exist.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (deleted bool, err error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// DeleteByVideo removes every assignment of a video.
func (s *Store) DeleteByVideo(ctx context.Context, videoID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"video_id": videoID})
	return err
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.VideoAssignment, error) {
	if opts == nil {
		opts = options.Find()
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.VideoAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
