// internal/app/features/cooperatives/approve.go
package cooperatives

import (
	"net/http"

	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /cooperatives/{id}/approve                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleApprove approves a pending cooperative. HTMX requests get the grid
// re-rendered from the patched board with the filter they were showing;
// other requests are redirected back to where they came from.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", defaultListReturn)
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "approve cooperative")
	defer cancel()

	htmx := isGridRequest(r)
	if htmx {
		if err := b.Load(ctx); err != nil {
			h.Log.Warn("list cooperatives failed", zap.Error(err))
		}
	}

	res, err := b.Approve(ctx, id)
	if err != nil {
		h.Log.Warn("approve cooperative failed", zap.String("id", id), zap.Error(err))
		auth.Notify(r, notify.Error, apiclient.UserMessage(err, msgApproveFailed))
	} else {
		h.Log.Info("cooperative approved", zap.String("id", id),
			zap.String("registration_number", res.RegistrationNumber))
		auth.Notify(r, notify.Success, msgApproved)
	}

	if htmx {
		h.renderList(w, r, b, r.FormValue("q"), parseStatus(r.FormValue("status")))
		return
	}
	http.Redirect(w, r, urlutil.SafeReturn(r.FormValue("return"), "", defaultListReturn), http.StatusSeeOther)
}
