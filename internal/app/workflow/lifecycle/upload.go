// internal/app/workflow/lifecycle/upload.go
package lifecycle

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	videostore "github.com/dalemusser/vidcollab/internal/app/store/videos"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/filestore"
	"github.com/dalemusser/vidcollab/internal/app/system/htmlsanitize"
	"github.com/dalemusser/vidcollab/internal/app/system/normalize"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UploadInput is a new video from its creator.
type UploadInput struct {
	Title       string
	Description string
	Tags        []string
	Category    string
	Privacy     string
	Media       Media
}

// Upload stores the media and creates the video in draft.
func (s *Service) Upload(ctx context.Context, creator string, in UploadInput) (models.Video, error) {
	const op = "lifecycle.Upload"
	creator = normalize.Email(creator)

	title := htmlsanitize.PlainText(in.Title)
	if title == "" {
		return models.Video{}, apperr.Validation(op, "title is required")
	}
	if in.Media.Body == nil {
		return models.Video{}, apperr.Validation(op, "video file is required")
	}
	privacy := models.PrivacyPublic
	if in.Privacy != "" {
		p, ok := models.ParsePrivacy(in.Privacy)
		if !ok {
			return models.Video{}, apperr.Validation(op, "invalid privacy "+in.Privacy)
		}
		privacy = p
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	if _, err := s.creators.Ensure(ctx, creator); err != nil {
		return models.Video{}, err
	}

	path, err := s.files.Put(ctx, "videos", in.Media.FileName, in.Media.Body)
	if err != nil {
		return models.Video{}, err
	}

	v, err := s.videos.Create(ctx, models.Video{
		CreatorEmail: creator,
		Title:        title,
		Description:  htmlsanitize.PlainText(in.Description),
		Tags:         normalize.Tags(in.Tags),
		Category:     category,
		Privacy:      privacy,
		Status:       models.VideoDraft,
		FilePath:     path,
	})
	if err != nil {
		s.dropFile(ctx, path)
		return models.Video{}, err
	}

	s.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryVideo,
		EventType:    audit.EventVideoUploaded,
		ActorEmail:   creator,
		CreatorEmail: creator,
		VideoID:      &v.ID,
		Success:      true,
	})
	s.log.Info("video uploaded", zap.String("video_id", v.ID.Hex()), zap.String("creator", creator))
	return v, nil
}

// ReplaceMedia swaps the video file. Requires canUploadEditedVideos.
func (s *Service) ReplaceMedia(ctx context.Context, actor string, id primitive.ObjectID, m Media) (models.Video, error) {
	const op = "lifecycle.ReplaceMedia"
	actor = normalize.Email(actor)

	v, err := s.load(ctx, op, id)
	if err != nil {
		return models.Video{}, err
	}
	if err := s.policy.Require(ctx, op, actor, v.CreatorEmail, models.CanUploadEditedVideos); err != nil {
		return models.Video{}, err
	}
	if v.Status == models.VideoPublished {
		return models.Video{}, apperr.Conflict(op, "video is already published")
	}
	if m.Body == nil {
		return models.Video{}, apperr.Validation(op, "video file is required")
	}

	path, err := s.files.Put(ctx, "videos", m.FileName, m.Body)
	if err != nil {
		return models.Video{}, err
	}

	u := editorUpdate(v, actor)
	u.FilePath = &path
	if err := s.apply(ctx, op, v, u); err != nil {
		s.dropFile(ctx, path)
		return models.Video{}, err
	}
	s.dropFile(ctx, v.FilePath)

	s.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryVideo,
		EventType:    audit.EventMediaReplaced,
		ActorEmail:   actor,
		CreatorEmail: v.CreatorEmail,
		VideoID:      &v.ID,
		Success:      true,
	})
	return s.videos.GetByID(ctx, id)
}

// OpenMedia returns the video file. Requires canDownloadVideos.
func (s *Service) OpenMedia(ctx context.Context, actor string, id primitive.ObjectID) (models.Video, io.ReadCloser, error) {
	const op = "lifecycle.OpenMedia"
	v, err := s.load(ctx, op, id)
	if err != nil {
		return models.Video{}, nil, err
	}
	if err := s.policy.Require(ctx, op, normalize.Email(actor), v.CreatorEmail, models.CanDownloadVideos); err != nil {
		return models.Video{}, nil, err
	}
	rc, err := s.files.Open(ctx, v.FilePath)
	if errors.Is(err, filestore.ErrNotFound) {
		return models.Video{}, nil, apperr.NotFound(op, "video file is missing")
	}
	if err != nil {
		return models.Video{}, nil, err
	}
	return v, rc, nil
}

// editorUpdate starts an update that records an editor's involvement: the
// editor becomes editedBy and a draft moves to editing. The creator's own
// edits leave both alone.
func editorUpdate(v models.Video, actor string) videostore.Update {
	var u videostore.Update
	if actor == v.CreatorEmail {
		return u
	}
	u.EditedBy = &actor
	if v.Status == models.VideoDraft && models.CanTransition(models.VideoDraft, models.VideoEditing) {
		st := models.VideoEditing
		u.Status = &st
	}
	return u
}
