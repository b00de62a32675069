// internal/app/features/comments/handler.go
package comments

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/vidcollab/internal/app/features/errors"
	"github.com/dalemusser/vidcollab/internal/app/features/shared/api"
	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/dalemusser/vidcollab/internal/app/system/apperr"
	"github.com/dalemusser/vidcollab/internal/app/system/auditlog"
	"github.com/dalemusser/vidcollab/internal/app/system/htmlsanitize"
	"github.com/dalemusser/vidcollab/internal/app/system/notify"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// VideoReader returns a video when actor may see it (creator or assignee).
type VideoReader interface {
	Get(ctx context.Context, actor string, id primitive.ObjectID) (models.Video, error)
}

// Store is the comment persistence this feature needs.
type Store interface {
	Create(ctx context.Context, c models.VideoComment) (models.VideoComment, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.VideoComment, error)
	ListByVideo(ctx context.Context, videoID primitive.ObjectID) ([]models.VideoComment, error)
	Update(ctx context.Context, id primitive.ObjectID, text *string, resolved *bool) (models.VideoComment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// AssignmentLister finds who works on a video.
type AssignmentLister interface {
	ListByVideo(ctx context.Context, videoID primitive.ObjectID) ([]models.VideoAssignment, error)
}

// Handler serves review comments on videos.
type Handler struct {
	Videos      VideoReader
	Comments    Store
	Assignments AssignmentLister
	Notifier    notify.Notifier
	Audit       auditlog.Recorder
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger
}

func NewHandler(videos VideoReader, store Store, assignments AssignmentLister, n notify.Notifier, a auditlog.Recorder, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if n == nil {
		n = notify.Nop{}
	}
	if a == nil {
		a = auditlog.Discard
	}
	return &Handler{
		Videos:      videos,
		Comments:    store,
		Assignments: assignments,
		Notifier:    n,
		Audit:       a,
		ErrLog:      errLog,
		Log:         logger,
	}
}

type createRequest struct {
	Text             string   `json:"text" validate:"required,max=5000"`
	ParentCommentID  string   `json:"parent_comment_id" validate:"omitempty,mongodb"`
	TimestampSeconds *float64 `json:"timestamp_seconds" validate:"omitempty,gte=0"`
}

type updateRequest struct {
	Text     *string `json:"text" validate:"omitempty,max=5000"`
	Resolved *bool   `json:"resolved"`
}

// commentView is a comment with the number of direct replies it has.
type commentView struct {
	models.VideoComment
	Replies int `json:"replies"`
}

// ServeList handles GET /api/comments/{videoID}.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	const op = "comments.List"
	videoID, err := api.ObjectID(r, op, "videoID")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if _, err := h.Videos.Get(r.Context(), actor.Email(r.Context()), videoID); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	list, err := h.Comments.ListByVideo(r.Context(), videoID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	replies := make(map[primitive.ObjectID]int)
	for _, c := range list {
		if c.ParentCommentID != nil {
			replies[*c.ParentCommentID]++
		}
	}
	out := make([]commentView, 0, len(list))
	for _, c := range list {
		out = append(out, commentView{VideoComment: c, Replies: replies[c.ID]})
	}
	api.OK(w, map[string]any{"comments": out})
}

// HandleCreate handles POST /api/comments/{videoID}.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "comments.Create"
	ctx := r.Context()
	who := actor.Email(ctx)

	videoID, err := api.ObjectID(r, op, "videoID")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var req createRequest
	if err := api.Decode(w, r, op, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	v, err := h.Videos.Get(ctx, who, videoID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	text := htmlsanitize.PlainText(req.Text)
	if text == "" {
		h.ErrLog.Write(w, r, apperr.Validation(op, "text is required"))
		return
	}
	c := models.VideoComment{
		VideoID:          v.ID,
		UserEmail:        who,
		UserType:         models.UserEditor,
		Text:             text,
		TimestampSeconds: req.TimestampSeconds,
	}
	if who == v.CreatorEmail {
		c.UserType = models.UserCreator
	}
	if req.ParentCommentID != "" {
		pid, _ := primitive.ObjectIDFromHex(req.ParentCommentID)
		parent, err := h.Comments.GetByID(ctx, pid)
		if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && parent.VideoID != v.ID) {
			h.ErrLog.Write(w, r, apperr.NotFound(op, "parent comment not found"))
			return
		}
		if err != nil {
			h.ErrLog.Write(w, r, err)
			return
		}
		c.ParentCommentID = &pid
	}

	c, err = h.Comments.Create(ctx, c)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	h.Audit.Log(ctx, audit.Event{
		Category:     audit.CategoryVideo,
		EventType:    audit.EventCommentAdded,
		ActorEmail:   who,
		CreatorEmail: v.CreatorEmail,
		VideoID:      &v.ID,
		Success:      true,
	})
	h.Notifier.Notify(ctx, notify.Event{
		Kind:         notify.KindNewComment,
		To:           h.otherParty(ctx, v, who),
		Actor:        who,
		CreatorEmail: v.CreatorEmail,
		VideoID:      v.ID.Hex(),
		VideoTitle:   v.Title,
		Message:      c.Text,
	})
	api.JSON(w, http.StatusCreated, commentView{VideoComment: c})
}

// otherParty is the creator for an editor's comment, and every editor
// assigned to the video for the creator's.
func (h *Handler) otherParty(ctx context.Context, v models.Video, author string) []string {
	if author != v.CreatorEmail {
		return []string{v.CreatorEmail}
	}
	list, err := h.Assignments.ListByVideo(ctx, v.ID)
	if err != nil {
		h.Log.Warn("comment notification: listing assignees failed",
			zap.String("video_id", v.ID.Hex()), zap.Error(err))
		return nil
	}
	to := make([]string, 0, len(list))
	for _, a := range list {
		to = append(to, a.EditorEmail)
	}
	return to
}

// loadForChange returns a comment and its video for the actor.
func (h *Handler) loadForChange(r *http.Request, op string) (models.VideoComment, models.Video, error) {
	id, err := api.ObjectID(r, op, "commentID")
	if err != nil {
		return models.VideoComment{}, models.Video{}, err
	}
	c, err := h.Comments.GetByID(r.Context(), id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.VideoComment{}, models.Video{}, apperr.NotFound(op, "comment not found")
	}
	if err != nil {
		return models.VideoComment{}, models.Video{}, err
	}
	v, err := h.Videos.Get(r.Context(), actor.Email(r.Context()), c.VideoID)
	if err != nil {
		return models.VideoComment{}, models.Video{}, err
	}
	return c, v, nil
}

// HandleUpdate handles PUT /api/comments/item/{commentID}. Only the author
// edits the text; the author or the video's creator may resolve.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "comments.Update"
	who := actor.Email(r.Context())

	var req updateRequest
	if err := api.Decode(w, r, op, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	c, v, err := h.loadForChange(r, op)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	if req.Text != nil {
		if c.UserEmail != who {
			h.ErrLog.Write(w, r, apperr.Authorization(op, "only the author can edit a comment"))
			return
		}
		clean := htmlsanitize.PlainText(*req.Text)
		if clean == "" {
			h.ErrLog.Write(w, r, apperr.Validation(op, "text cannot be empty"))
			return
		}
		req.Text = &clean
	}
	if req.Resolved != nil && who != c.UserEmail && who != v.CreatorEmail {
		h.ErrLog.Write(w, r, apperr.Authorization(op, "only the author or the creator can resolve a comment"))
		return
	}
	if req.Text == nil && req.Resolved == nil {
		api.OK(w, commentView{VideoComment: c})
		return
	}

	updated, err := h.Comments.Update(r.Context(), c.ID, req.Text, req.Resolved)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, commentView{VideoComment: updated})
}

// HandleDelete handles DELETE /api/comments/item/{commentID}. Replies go with it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "comments.Delete"
	who := actor.Email(r.Context())

	c, v, err := h.loadForChange(r, op)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if c.UserEmail != who {
		h.ErrLog.Write(w, r, apperr.Authorization(op, "only the author can delete a comment"))
		return
	}
	if err := h.Comments.Delete(r.Context(), c.ID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = apperr.NotFound(op, "comment not found")
		}
		h.ErrLog.Write(w, r, err)
		return
	}

	h.Audit.Log(r.Context(), audit.Event{
		Category:     audit.CategoryVideo,
		EventType:    audit.EventCommentDeleted,
		ActorEmail:   who,
		CreatorEmail: v.CreatorEmail,
		VideoID:      &v.ID,
		Success:      true,
	})
	w.WriteHeader(http.StatusNoContent)
}
