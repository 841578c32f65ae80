package home

import (
	"net/http"

	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/dalemusser/coophub/internal/app/system/guard"
	"go.uber.org/zap"
)

// Handler sends visitors at "/" to their starting screen.
type Handler struct {
	Policy *guard.Policy
	Log    *zap.Logger
}

func NewHandler(policy *guard.Policy, logger *zap.Logger) *Handler {
	return &Handler{
		Policy: policy,
		Log:    logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoot redirects to the home screen when signed in and to login
// otherwise. In the production router auth.Guard owns "/" and answers before
// this handler runs; ServeRoot only serves routers mounted without the guard.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	target := h.Policy.Login
	if auth.Snapshot(r).IsAuthenticated() {
		target = h.Policy.Home
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
