// internal/app/features/assignments/handler.go
package assignments

import (
	"net/http"

	uierrors "github.com/dalemusser/vidcollab/internal/app/features/errors"
	"github.com/dalemusser/vidcollab/internal/app/features/shared/api"
	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/dalemusser/vidcollab/internal/app/workflow/tasks"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the task assignment ledger.
type Handler struct {
	Tasks  *tasks.Service
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(svc *tasks.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Tasks: svc, ErrLog: errLog, Log: logger}
}

type assignRequest struct {
	Editor string `json:"editor" validate:"required,email"`
	Role   string `json:"role" validate:"required,team_role"`
	Notes  string `json:"notes" validate:"max=5000"`
}

type statusRequest struct {
	Status string  `json:"status" validate:"required,task_status"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// HandleAssign handles POST /api/assignments/{videoID}/assign.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	const op = "tasks.Assign"
	videoID, err := api.ObjectID(r, op, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var req assignRequest
	if err := api.Decode(w, r, op, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	a, err := h.Tasks.Assign(r.Context(), actor.Email(r.Context()), videoID, req.Editor, req.Role, req.Notes)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, a)
}

// ServeForVideo handles GET /api/assignments/{videoID}.
func (h *Handler) ServeForVideo(w http.ResponseWriter, r *http.Request) {
	videoID, err := api.ObjectID(r, "tasks.ListForVideo", "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	list, err := h.Tasks.ListForVideo(r.Context(), actor.Email(r.Context()), videoID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, map[string]any{"assignments": list})
}

// ServeForEditor handles GET /api/assignments/editor/{editor}.
func (h *Handler) ServeForEditor(w http.ResponseWriter, r *http.Request) {
	editor, err := api.Self(r, "tasks.ListForEditor", "editor")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	list, err := h.Tasks.ListForEditor(r.Context(), editor)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, map[string]any{"tasks": list})
}

// HandleStatus handles PUT /api/assignments/{assignmentID}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	const op = "tasks.SetStatus"
	id, err := api.ObjectID(r, op, "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var req statusRequest
	if err := api.Decode(w, r, op, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	a, err := h.Tasks.SetStatus(r.Context(), actor.Email(r.Context()), id, req.Status, req.Notes)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, a)
}

// HandleEditorStatus handles PUT /api/assignments/video/{videoID}/editor/{editor}.
// Every task the editor holds on the video moves together.
func (h *Handler) HandleEditorStatus(w http.ResponseWriter, r *http.Request) {
	const op = "tasks.SetStatusForEditor"
	videoID, err := api.ObjectID(r, op, "videoID")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var req statusRequest
	if err := api.Decode(w, r, op, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	list, err := h.Tasks.SetStatusForEditor(r.Context(), actor.Email(r.Context()), videoID, chi.URLParam(r, "editor"), req.Status)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, map[string]any{"assignments": list})
}

// HandleRemove handles DELETE /api/assignments/{assignmentID}.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, err := api.ObjectID(r, "tasks.Remove", "id")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if err := h.Tasks.Remove(r.Context(), actor.Email(r.Context()), id); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
