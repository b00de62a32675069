// internal/app/features/comments/routes.go
package comments

import (
	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/go-chi/chi/v5"
)

// Routes mounts comment endpoints under /api/comments.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(actor.Require)

	r.Put("/item/{commentID}", h.HandleUpdate)
	r.Delete("/item/{commentID}", h.HandleDelete)
	r.Get("/{videoID}", h.ServeList)
	r.Post("/{videoID}", h.HandleCreate)
	return r
}
