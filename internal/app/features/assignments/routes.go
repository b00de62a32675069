// internal/app/features/assignments/routes.go
package assignments

import (
	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the assignment ledger under /api/assignments.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(actor.Require)

	r.Get("/editor/{editor}", h.ServeForEditor)
	r.Put("/video/{videoID}/editor/{editor}", h.HandleEditorStatus)

	// {id} is a video id for assign/list and an assignment id for
	// status/delete. chi needs one parameter name per segment.
	r.Post("/{id}/assign", h.HandleAssign)
	r.Get("/{id}", h.ServeForVideo)
	r.Put("/{id}/status", h.HandleStatus)
	r.Delete("/{id}", h.HandleRemove)
	return r
}
