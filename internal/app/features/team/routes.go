// internal/app/features/team/routes.go
package team

import (
	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the team ledger. Typically: r.Mount("/api/team", team.Routes(h))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(actor.Require)

	r.Get("/{creator}", h.ServeList)
	r.Post("/{creator}/invite", h.HandleInvite)
	r.Get("/{creator}/available-editors", h.ServeAvailable)
	r.Delete("/{creator}/{editor}/{role}", h.HandleRemove)
	return r
}

// EditorRoutes is mounted at /api/editors.
func EditorRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(actor.Require)
	r.Post("/", h.HandleRegisterEditor)
	return r
}

// CreatorRoutes is mounted at /api/creators.
func CreatorRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(actor.Require)
	r.Get("/{email}", h.ServeProfile)
	r.Put("/{email}/primary-editor", h.HandlePrimaryEditor)
	return r
}
