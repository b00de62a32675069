// internal/app/workflow/lifecycle/manage.go
package lifecycle

import (
	"context"
	"errors"
	"strconv"

	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	videostore "github.com/dalemusser/vidcollab/internal/app/store/videos"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/normalize"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Rate records the creator's 1..5 rating of the editor who worked on the
// video. A video is rated once.
func (s *Service) Rate(ctx context.Context, creator string, id primitive.ObjectID, rating int) (models.Video, error) {
	const op = "lifecycle.Rate"
	creator = normalize.Email(creator)

	if rating < 1 || rating > 5 {
		return models.Video{}, apperr.Validation(op, "rating must be between 1 and 5")
	}
	v, err := s.loadOwned(ctx, op, creator, id)
	if err != nil {
		return models.Video{}, err
	}
	if v.Status != models.VideoApproved && v.Status != models.VideoPublished {
		return models.Video{}, apperr.Conflict(op, "only approved or published videos can be rated")
	}
	if v.EditedBy == "" {
		return models.Video{}, apperr.Conflict(op, "no editor has worked on this video")
	}

	if err := s.videos.SetRating(ctx, v.ID, rating); err != nil {
		if errors.Is(err, videostore.ErrAlreadyRated) {
			return models.Video{}, apperr.Conflict(op, "video already rated")
		}
		return models.Video{}, err
	}
	if err := s.editors.AddRating(ctx, v.EditedBy, rating); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return models.Video{}, err
		}
		s.log.Warn("rated editor is not registered", zap.String("editor", v.EditedBy))
	}
	v.Rating = rating

	s.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryVideo,
		EventType:    audit.EventVideoRated,
		ActorEmail:   creator,
		CreatorEmail: creator,
		SubjectEmail: v.EditedBy,
		VideoID:      &v.ID,
		Success:      true,
		Details:      map[string]string{"rating": strconv.Itoa(rating)},
	})
	return v, nil
}

// Delete removes the video with its tasks, comments and files.
func (s *Service) Delete(ctx context.Context, creator string, id primitive.ObjectID) error {
	const op = "lifecycle.Delete"
	creator = normalize.Email(creator)

	v, err := s.loadOwned(ctx, op, creator, id)
	if err != nil {
		return err
	}
	err = s.tx(ctx, func(ctx context.Context) error {
		if err := s.assignments.DeleteByVideo(ctx, v.ID); err != nil {
			return err
		}
		if err := s.comments.DeleteByVideo(ctx, v.ID); err != nil {
			return err
		}
		return s.videos.Delete(ctx, v.ID)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperr.NotFound(op, "video not found")
		}
		s.log.Error("video delete failed", zap.String("video_id", v.ID.Hex()), zap.Error(err))
		return err
	}
	// Media files go last, outside the transaction, best effort.
	s.dropFile(ctx, v.FilePath)
	s.dropFile(ctx, v.ThumbnailPath)

	s.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryVideo,
		EventType:    audit.EventVideoDeleted,
		ActorEmail:   creator,
		CreatorEmail: creator,
		VideoID:      &v.ID,
		Success:      true,
		Details:      map[string]string{"title": v.Title},
	})
	return nil
}

// Get returns the video to its creator or to an editor assigned to it.
func (s *Service) Get(ctx context.Context, actor string, id primitive.ObjectID) (models.Video, error) {
	const op = "lifecycle.Get"
	actor = normalize.Email(actor)

	v, err := s.load(ctx, op, id)
	if err != nil {
		return models.Video{}, err
	}
	if v.CreatorEmail == actor {
		return v, nil
	}
	mine, err := s.assignments.ListForEditorOnVideo(ctx, v.ID, actor)
	if err != nil {
		return models.Video{}, err
	}
	if len(mine) == 0 {
		return models.Video{}, apperr.NotFound(op, "video not found")
	}
	return v, nil
}

// ListForCreator returns the creator's videos, newest first.
func (s *Service) ListForCreator(ctx context.Context, creator string) ([]models.Video, error) {
	vids, err := s.videos.ListByCreator(ctx, normalize.Email(creator))
	if vids == nil && err == nil {
		vids = []models.Video{}
	}
	return vids, err
}

// ListForEditor returns the videos the editor holds at least one task on.
func (s *Service) ListForEditor(ctx context.Context, editor string) ([]models.Video, error) {
	list, err := s.assignments.ListByEditor(ctx, normalize.Email(editor))
	if err != nil {
		return nil, err
	}
	seen := make(map[primitive.ObjectID]bool, len(list))
	ids := make([]primitive.ObjectID, 0, len(list))
	for _, a := range list {
		if !seen[a.VideoID] {
			seen[a.VideoID] = true
			ids = append(ids, a.VideoID)
		}
	}
	vids, err := s.videos.ListByIDs(ctx, ids)
	if vids == nil && err == nil {
		vids = []models.Video{}
	}
	return vids, err
}
