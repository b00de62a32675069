// internal/app/workflow/lifecycle/transitions.go
package lifecycle

import (
	"context"
	"errors"

	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	videostore "github.com/dalemusser/vidcollab/internal/app/store/videos"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/normalize"
	"github.com/dalemusser/vidcollab/internal/app/system/notify"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (s *Service) move(ctx context.Context, op string, v models.Video, to models.VideoStatus) error {
	if !models.CanTransition(v.Status, to) {
		return apperr.Conflict(op, "cannot move video from "+string(v.Status)+" to "+string(to))
	}
	err := s.videos.SetStatus(ctx, v.ID, v.Status, to)
	if errors.Is(err, videostore.ErrStatusChanged) {
		return apperr.Conflict(op, "video was updated concurrently")
	}
	return err
}

// MarkReady is an assigned editor handing the video over for review. All of
// the editor's tasks on the video are completed on the way.
func (s *Service) MarkReady(ctx context.Context, editor string, id primitive.ObjectID) (models.Video, error) {
	const op = "lifecycle.MarkReady"
	editor = normalize.Email(editor)

	v, err := s.load(ctx, op, id)
	if err != nil {
		return models.Video{}, err
	}
	if v.Status != models.VideoDraft && v.Status != models.VideoEditing {
		return models.Video{}, apperr.Conflict(op, "video is "+string(v.Status)+", not draft or editing")
	}
	mine, err := s.assignments.ListForEditorOnVideo(ctx, v.ID, editor)
	if err != nil {
		return models.Video{}, err
	}
	if len(mine) == 0 {
		return models.Video{}, apperr.Authorization(op, "not assigned to this video")
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		if _, err := s.assignments.CompleteForEditor(ctx, v.ID, editor); err != nil {
			return err
		}
		return s.move(ctx, op, v, models.VideoReview)
	})
	if err != nil {
		return models.Video{}, err
	}
	v.Status = models.VideoReview

	s.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryVideo,
		EventType:    audit.EventVideoReady,
		ActorEmail:   editor,
		CreatorEmail: v.CreatorEmail,
		VideoID:      &v.ID,
		Success:      true,
	})
	s.notifier.Notify(ctx, notify.Event{
		Kind:         notify.KindVideoReady,
		To:           []string{v.CreatorEmail},
		Actor:        editor,
		CreatorEmail: v.CreatorEmail,
		EditorEmail:  editor,
		VideoID:      v.ID.Hex(),
		VideoTitle:   v.Title,
	})
	return v, nil
}

// Approve is the creator accepting a reviewed video. Every task on the
// video must be completed.
func (s *Service) Approve(ctx context.Context, creator string, id primitive.ObjectID) (models.Video, error) {
	const op = "lifecycle.Approve"
	creator = normalize.Email(creator)

	v, err := s.loadOwned(ctx, op, creator, id)
	if err != nil {
		return models.Video{}, err
	}
	if v.Status != models.VideoReview {
		return models.Video{}, apperr.Conflict(op, "video is "+string(v.Status)+", not review")
	}
	done, err := s.completion.AllCompleted(ctx, v.ID)
	if err != nil {
		return models.Video{}, err
	}
	if !done {
		return models.Video{}, apperr.Conflict(op, "tasks incomplete")
	}
	if err := s.move(ctx, op, v, models.VideoApproved); err != nil {
		return models.Video{}, err
	}
	v.Status = models.VideoApproved

	s.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryVideo,
		EventType:    audit.EventVideoApproved,
		ActorEmail:   creator,
		CreatorEmail: creator,
		VideoID:      &v.ID,
		Success:      true,
	})
	return v, nil
}
