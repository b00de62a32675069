package channel

import (
	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the connect flow under /api/channel. The callback arrives
// from Google's redirect and carries no actor header.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/callback", h.ServeCallback)
	r.Group(func(r chi.Router) {
		r.Use(actor.Require)
		r.Get("/connect", h.ServeConnect)
		r.Post("/revoke", h.ServeRevoke)
	})
	return r
}
