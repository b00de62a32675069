// internal/app/features/team/handler.go
package team

import (
	"net/http"

	uierrors "github.com/dalemusser/vidcollab/internal/app/features/errors"
	"github.com/dalemusser/vidcollab/internal/app/features/shared/api"
	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/dalemusser/vidcollab/internal/app/workflow/team"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the team ledger, editor registration and creator profiles.
type Handler struct {
	Team   *team.Service
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(svc *team.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Team: svc, ErrLog: errLog, Log: logger}
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,team_role"`
}

type primaryEditorRequest struct {
	Editor string `json:"editor" validate:"omitempty,email"`
}

// ServeList handles GET /api/team/{creator}.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	creator, err := api.Self(r, "team.List", "creator")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	members, err := h.Team.ListForCreator(r.Context(), creator)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, map[string]any{"members": members})
}

// HandleInvite handles POST /api/team/{creator}/invite.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	const op = "team.Invite"
	creator, err := api.Self(r, op, "creator")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var req inviteRequest
	if err := api.Decode(w, r, op, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	m, err := h.Team.Invite(r.Context(), creator, req.Email, req.Role)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	h.Log.Info("team member invited",
		zap.String("creator", creator),
		zap.String("editor", m.EditorEmail),
		zap.String("role", string(m.Role)))
	api.OK(w, m)
}

// HandleRemove handles DELETE /api/team/{creator}/{editor}/{role}.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	creator, err := api.Self(r, "team.Remove", "creator")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if err := h.Team.Remove(r.Context(), creator, chi.URLParam(r, "editor"), chi.URLParam(r, "role")); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeAvailable handles GET /api/team/{creator}/available-editors.
func (h *Handler) ServeAvailable(w http.ResponseWriter, r *http.Request) {
	creator, err := api.Self(r, "team.ListAvailableEditors", "creator")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	eds, err := h.Team.ListAvailableEditors(r.Context(), creator)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, map[string]any{"editors": eds})
}

// HandleRegisterEditor handles POST /api/editors. The actor registers
// themselves.
func (h *Handler) HandleRegisterEditor(w http.ResponseWriter, r *http.Request) {
	ed, err := h.Team.RegisterEditor(r.Context(), actor.Email(r.Context()))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.JSON(w, http.StatusCreated, ed)
}

// ServeProfile handles GET /api/creators/{email}.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.Team.Profile(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, p)
}

// HandlePrimaryEditor handles PUT /api/creators/{email}/primary-editor.
func (h *Handler) HandlePrimaryEditor(w http.ResponseWriter, r *http.Request) {
	const op = "team.SetPrimaryEditor"
	creator, err := api.Self(r, op, "email")
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	var req primaryEditorRequest
	if err := api.Decode(w, r, op, &req); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	if err := h.Team.SetPrimaryEditor(r.Context(), creator, req.Editor); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	p, err := h.Team.Profile(r.Context(), creator)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	api.OK(w, p)
}
