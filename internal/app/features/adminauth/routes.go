// internal/app/features/adminauth/routes.go
package adminauth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts admin auth under whatever base path the caller chooses
// (typically "/admin" from bootstrap).
//
//	r.Mount("/admin", adminauth.Routes(h, requireAdmin))
func Routes(h *Handler, requireAdmin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(requireAdmin)
		pr.Get("/me", h.ServeMe)
		pr.Get("/users/{providerID}", h.ServeUser)
	})

	return r
}
