// internal/app/features/cooperatives/routes.go
package cooperatives

import (
	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the cooperative screens. Viewing is gated by the guard on
// the parent router; create and approve carry their own action checks.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeDetail)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireAction("cooperatives", "create"))
		r.Get("/new", h.ServeNew)
		r.Post("/", h.HandleCreate)
	})
	r.With(sm.RequireAction("cooperatives", "approve")).Post("/{id}/approve", h.HandleApprove)
	return r
}
