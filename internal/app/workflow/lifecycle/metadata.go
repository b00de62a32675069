// internal/app/workflow/lifecycle/metadata.go
package lifecycle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	videostore "github.com/dalemusser/vidcollab/internal/app/store/videos"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/htmlsanitize"
	"github.com/dalemusser/vidcollab/internal/app/system/normalize"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MetadataPatch is a partial metadata edit. Nil fields are not requested.
type MetadataPatch struct {
	Title       *string
	Description *string
	Tags        *[]string
	Category    *string
	Privacy     *string
	Thumbnail   *Media
}

// EditResult reports whether an edit changed anything.
type EditResult struct {
	Changed bool         `json:"changed"`
	Message string       `json:"message,omitempty"`
	Fields  []string     `json:"fields,omitempty"`
	Video   models.Video `json:"video"`
}

// EditMetadata applies p. Anyone other than the owner needs canEditMetadata
// or canUploadThumbnails, whatever the patch carries. A patch that matches
// the stored values and carries no thumbnail changes nothing.
func (s *Service) EditMetadata(ctx context.Context, actor string, id primitive.ObjectID, p MetadataPatch) (EditResult, error) {
	const op = "lifecycle.EditMetadata"
	actor = normalize.Email(actor)

	v, err := s.load(ctx, op, id)
	if err != nil {
		return EditResult{}, err
	}
	if err := s.policy.RequireAny(ctx, op, actor, v.CreatorEmail, models.CanEditMetadata, models.CanUploadThumbnails); err != nil {
		return EditResult{}, err
	}
	if v.Status == models.VideoPublished {
		return EditResult{}, apperr.Conflict(op, "published videos cannot be edited")
	}

	u, fields, err := diff(op, v, p)
	if err != nil {
		return EditResult{}, err
	}
	if len(fields) == 0 && p.Thumbnail == nil {
		return EditResult{Changed: false, Message: "no changes", Video: v}, nil
	}

	var thumb string
	if p.Thumbnail != nil {
		thumb, err = s.storeThumbnail(ctx, op, *p.Thumbnail)
		if err != nil {
			return EditResult{}, err
		}
		u.ThumbnailPath = &thumb
		fields = append(fields, "thumbnail")
	}

	eu := editorUpdate(v, actor)
	u.EditedBy, u.Status = eu.EditedBy, eu.Status

	if err := s.apply(ctx, op, v, u); err != nil {
		s.dropFile(ctx, thumb)
		return EditResult{}, err
	}
	if thumb != "" {
		s.dropFile(ctx, v.ThumbnailPath)
	}

	s.audit.Log(ctx, audit.Event{
		Category:     audit.CategoryVideo,
		EventType:    audit.EventMetadataEdited,
		ActorEmail:   actor,
		CreatorEmail: v.CreatorEmail,
		VideoID:      &v.ID,
		Success:      true,
		Details:      map[string]string{"fields": strings.Join(fields, ",")},
	})

	updated, err := s.videos.GetByID(ctx, id)
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{Changed: true, Fields: fields, Video: updated}, nil
}

// diff validates p and keeps only the fields that differ from v.
func diff(op string, v models.Video, p MetadataPatch) (videostore.Update, []string, error) {
	var u videostore.Update
	var fields []string

	if p.Title != nil {
		title := htmlsanitize.PlainText(*p.Title)
		if title == "" {
			return u, nil, apperr.Validation(op, "title cannot be empty")
		}
		if title != v.Title {
			u.Title = &title
			fields = append(fields, "title")
		}
	}
	if p.Description != nil {
		desc := htmlsanitize.PlainText(*p.Description)
		if desc != v.Description {
			u.Description = &desc
			fields = append(fields, "description")
		}
	}
	if p.Tags != nil {
		tags := normalize.Tags(*p.Tags)
		if !slices.Equal(tags, v.Tags) {
			u.Tags = &tags
			fields = append(fields, "tags")
		}
	}
	if p.Category != nil {
		cat := strings.TrimSpace(*p.Category)
		if cat == "" {
			return u, nil, apperr.Validation(op, "category cannot be empty")
		}
		if cat != v.Category {
			u.Category = &cat
			fields = append(fields, "category")
		}
	}
	if p.Privacy != nil {
		priv, ok := models.ParsePrivacy(*p.Privacy)
		if !ok {
			return u, nil, apperr.Validation(op, "invalid privacy "+*p.Privacy)
		}
		if priv != v.Privacy {
			u.Privacy = &priv
			fields = append(fields, "privacy")
		}
	}
	return u, fields, nil
}

func (s *Service) storeThumbnail(ctx context.Context, op string, m Media) (string, error) {
	if m.Body == nil {
		return "", apperr.Validation(op, "thumbnail file is required")
	}
	data, err := io.ReadAll(io.LimitReader(m.Body, models.MaxThumbnailBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > models.MaxThumbnailBytes {
		return "", apperr.Validation(op, fmt.Sprintf("thumbnail exceeds %d MB", models.MaxThumbnailBytes>>20))
	}
	if len(data) == 0 {
		return "", apperr.Validation(op, "thumbnail file is empty")
	}
	return s.files.Put(ctx, "thumbnails", m.FileName, bytes.NewReader(data))
}
