// internal/app/features/pages/routes.go
package pages

import "github.com/go-chi/chi/v5"

// Router returns a router serving one placeholder page. Mount it at
// "/"+slug; access is decided by the guard.
func (h *Handler) Router(slug string) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServePage(slug))
	return r
}
