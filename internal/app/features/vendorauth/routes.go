// internal/app/features/vendorauth/routes.go
package vendorauth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts vendor auth, typically under "/auth".
func Routes(h *Handler, requireVendor func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.HandleLogin)
	r.Post("/set-password", h.HandleSetPassword)

	r.Group(func(pr chi.Router) {
		pr.Use(requireVendor)
		pr.Get("/me", h.ServeMe)
		pr.Get("/users", h.ServeUsers)
		pr.Get("/users/{code}", h.ServeUser)
	})

	return r
}
