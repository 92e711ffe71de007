// internal/app/features/vendors/routes.go
package vendors

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts vendor management, typically under "/admin/vendors".
// Every route requires an admin.
func Routes(h *Handler, requireAdmin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAdmin)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Post("/bulk", h.HandleBulkCreate)
	r.Get("/{code}", h.ServeVendor)
	r.Delete("/{code}", h.HandleDelete)

	return r
}
