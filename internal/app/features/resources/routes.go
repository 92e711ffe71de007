// internal/app/features/resources/routes.go
package resources

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the directory under whatever base path the caller
// chooses (typically "/resources" from bootstrap).
//
// Reads and the submission form are public; everything that changes the
// published directory or touches the review queue requires an admin.
func Routes(h *Handler, requireAdmin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// Public
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeResource)
	r.Post("/form", h.HandleSubmit)

	r.Group(func(ar chi.Router) {
		ar.Use(requireAdmin)

		ar.Get("/all", h.ServeListAll)
		ar.Post("/", h.HandleCreate)
		ar.Patch("/{id}", h.HandleUpdate)
		ar.Post("/{id}/remove", h.HandleRemove)
		ar.Post("/seed", h.HandleSeed)

		// Review queue
		ar.Get("/pending", h.ServePendingList)
		ar.Get("/pending/{id}", h.ServePending)
		ar.Post("/pending/{id}/approve", h.HandleApprove)
		ar.Post("/pending/{id}/deny", h.HandleDeny)
	})

	return r
}
