// internal/app/features/dashboard/routes.go
package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin overview (typically at "/admin/stats").
func Routes(h *Handler, requireAdmin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(requireAdmin)
	r.Get("/", h.ServeStats)
	return r
}
