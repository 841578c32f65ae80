// internal/app/features/logout/routes.go
package logout

import "github.com/go-chi/chi/v5"

// Routes serves POST /logout. The route is open: signing out an anonymous
// visitor just lands them on the login page. There is no GET route, so a
// cross-site link cannot end a session without the csrf token.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ServeLogout)
	return r
}
