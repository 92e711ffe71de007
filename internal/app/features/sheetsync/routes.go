// internal/app/features/sheetsync/routes.go
package sheetsync

import "github.com/go-chi/chi/v5"

// Routes mounts the public sheet sync endpoint.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/sync_resources", h.ServeSync)
	return r
}
