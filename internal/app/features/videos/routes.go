// internal/app/features/videos/routes.go
package videos

import (
	"net/http"

	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the video endpoints under /api/videos.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(actor.Require)

	r.Post("/", h.HandleUpload)
	r.Get("/creator/{creator}", h.ServeForCreator)
	r.Get("/editor/{editor}", h.ServeForEditor)

	r.Route("/{id}", func(vr chi.Router) {
		vr.Get("/", h.ServeVideo)
		vr.Patch("/", h.HandleEdit)
		vr.Delete("/", h.HandleDelete)
		vr.Post("/ready", h.HandleReady)
		vr.Post("/approve", h.HandleApprove)
		vr.Post("/replace", h.HandleReplace)
		vr.Get("/download", h.ServeDownload)
		vr.Post("/rate", h.HandleRate)

		if h.PublishLimit != nil {
			vr.With(h.PublishLimit.Middleware(byActor)).Post("/publish", h.HandlePublish)
		} else {
			vr.Post("/publish", h.HandlePublish)
		}
	})
	return r
}

func byActor(r *http.Request) string {
	return actor.Email(r.Context())
}
