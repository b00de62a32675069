// internal/app/features/analytics/routes.go
package analytics

import (
	"github.com/dalemusser/vidcollab/internal/app/system/actor"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the dashboards under /api/analytics.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(actor.Require)

	r.Get("/creator/{email}", h.ServeCreator)
	r.Get("/creator/{email}/activity", h.ServeActivity)
	r.Get("/editor/{email}", h.ServeEditor)
	return r
}
