package events

import (
	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(actor.Require)
	r.Get("/", h.ServeStream)
	return r
}
