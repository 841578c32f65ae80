// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/coophub/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// ServeLogout handles POST /logout. Signing out needs no API call:
// the stored token is dropped and the session ends anonymous.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if m := auth.Manager(r); m != nil {
		if u := m.User(); u != nil {
			h.Log.Info("user logged out", zap.String("user_id", u.ID))
		}
		m.Logout()
	}

	// HTMX handling: use HX-Redirect to force a client-side navigation.
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/login")
		// We don't really care about the status code here; HTMX uses HX-Redirect.
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
