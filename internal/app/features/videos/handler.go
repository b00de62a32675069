// internal/app/features/videos/handler.go
package videos

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/vidcollab/internal/app/features/errors"
	"github.com/dalemusser/vidcollab/internal/app/features/shared/api"
	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/dalemusser/vidcollab/internal/app/system/ratelimit"
	"github.com/dalemusser/vidcollab/internal/app/system/timeouts"
	"github.com/dalemusser/vidcollab/internal/app/workflow/lifecycle"
	"github.com/dalemusser/vidcollab/internal/app/workflow/publish"
	"github.com/dalemusser/vidcollab/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultMaxUploadBytes caps a single media upload.
const DefaultMaxUploadBytes int64 = 8 << 30

// Handler serves the video lifecycle and the publish endpoint.
type Handler struct {
	Videos    *lifecycle.Service
	Publisher *publish.Pipeline
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger

	// PublishLimit throttles publish calls per creator. Nil disables it.
	PublishLimit   *ratelimit.Limiter
	MaxUploadBytes int64
}

func NewHandler(videos *lifecycle.Service, pub *publish.Pipeline, limit *ratelimit.Limiter, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Videos:         videos,
		Publisher:      pub,
		ErrLog:         errLog,
		Log:            logger,
		PublishLimit:   limit,
		MaxUploadBytes: DefaultMaxUploadBytes,
	}
}

type rateRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

type videoList struct {
	Videos []models.Video `json:"videos"`
}

// ServeForCreator handles GET /api/videos/creator/{creator}.
func (h *Handler) ServeForCreator(w http.ResponseWriter, r *http.Request) {
	creator, err := api.Self(r, "lifecycle.ListForCreator", "creator")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	vids, err := h.Videos.ListForCreator(r.Context(), creator)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, videoList{Videos: vids})
}

// ServeForEditor handles GET /api/videos/editor/{editor}.
func (h *Handler) ServeForEditor(w http.ResponseWriter, r *http.Request) {
	editor, err := api.Self(r, "lifecycle.ListForEditor", "editor")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	vids, err := h.Videos.ListForEditor(r.Context(), editor)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, videoList{Videos: vids})
}

// ServeVideo handles GET /api/videos/{id}.
func (h *Handler) ServeVideo(w http.ResponseWriter, r *http.Request) {
	id, err := api.ObjectID(r, "lifecycle.Get", "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	v, err := h.Videos.Get(r.Context(), actor.Email(r.Context()), id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, v)
}

// HandleReady handles POST /api/videos/{id}/ready.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	id, err := api.ObjectID(r, "lifecycle.MarkReady", "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	v, err := h.Videos.MarkReady(r.Context(), actor.Email(r.Context()), id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, v)
}

// HandleApprove handles POST /api/videos/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := api.ObjectID(r, "lifecycle.Approve", "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	v, err := h.Videos.Approve(r.Context(), actor.Email(r.Context()), id)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, v)
}

// HandlePublish handles POST /api/videos/{id}/publish.
//
// The upload keeps running if the client goes away, so a dropped
// connection cannot leave a half-recorded publish behind.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	id, err := api.ObjectID(r, "publish.Publish", "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Publish())
	defer cancel()

	res, err := h.Publisher.Publish(ctx, id, actor.Email(r.Context()))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, res)
}

// HandleRate handles POST /api/videos/{id}/rate.
func (h *Handler) HandleRate(w http.ResponseWriter, r *http.Request) {
	const op = "lifecycle.Rate"
	id, err := api.ObjectID(r, op, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var req rateRequest
	if err := api.Decode(w, r, op, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	v, err := h.Videos.Rate(r.Context(), actor.Email(r.Context()), id, req.Rating)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, v)
}

// HandleDelete handles DELETE /api/videos/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := api.ObjectID(r, "lifecycle.Delete", "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if err := h.Videos.Delete(r.Context(), actor.Email(r.Context()), id); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
