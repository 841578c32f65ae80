// internal/app/features/cooperatives/view.go
package cooperatives

import (
	"net/http"

	uierrors "github.com/dalemusser/coophub/internal/app/features/errors"
	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/app/system/timeouts"
	"github.com/dalemusser/coophub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /cooperatives/{id}                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeDetail shows one cooperative. The API has no single-item endpoint,
// so the list is fetched and searched.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "load cooperative")
	defer cancel()
	if err := b.Load(ctx); err != nil {
		h.Log.Warn("list cooperatives failed", zap.String("id", id), zap.Error(err))
		auth.Notify(r, notify.Error, apiclient.UserMessage(err, msgFetchFailed))
		http.Redirect(w, r, defaultListReturn, http.StatusSeeOther)
		return
	}

	c, found := b.Find(id)
	if !found {
		uierrors.RenderPage(w, r, http.StatusNotFound, "Cooperative not found",
			"This cooperative does not exist or is outside your district.", defaultListReturn)
		return
	}

	templates.Render(w, r, "cooperatives_view", detailData{
		BaseVM: viewdata.NewBaseVM(w, r, c.Name, defaultListReturn),
		Card:   card(c, viewdata.Can(r, "cooperatives", "approve")),
	})
}
