// internal/app/features/cooperatives/list.go
package cooperatives

import (
	"net/http"

	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/app/system/timeouts"
	"github.com/dalemusser/coophub/internal/app/system/viewdata"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /cooperatives                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList renders the cooperative grid filtered by ?q= and ?status=.
// A failed fetch shows an empty grid and an error toast.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list cooperatives")
	defer cancel()
	if err := b.Load(ctx); err != nil {
		h.Log.Warn("list cooperatives failed", zap.Error(err))
		auth.Notify(r, notify.Error, apiclient.UserMessage(err, msgFetchFailed))
	}

	h.renderList(w, r, b, query.Search(r, "q"), parseStatus(query.Get(r, "status")))
}

// renderList renders the page, or only the grid (plus pending toasts) for
// HTMX requests aimed at it.
func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, b *Board, q string, status models.CooperativeStatus) {
	canApprove := viewdata.Can(r, "cooperatives", "approve")

	matches := b.Filter(q, status)
	cards := make([]coopCard, 0, len(matches))
	for _, c := range matches {
		cards = append(cards, card(c, canApprove))
	}

	data := listData{
		Q:          q,
		Status:     string(status),
		Options:    statusOptions(status),
		Cards:      cards,
		CanCreate:  viewdata.Can(r, "cooperatives", "create"),
		ReturnPath: httpnav.CurrentPath(r),
	}
	if len(cards) == 0 {
		data.EmptyHint = emptyFiltered
		if b.Len() == 0 {
			data.EmptyHint = emptyAll
		}
	}

	data.BaseVM = viewdata.NewBaseVM(w, r, "Cooperatives", "/dashboard")
	if isGridRequest(r) {
		templates.RenderSnippet(w, "cooperatives_grid", data)
		return
	}
	templates.Render(w, r, "cooperatives_list", data)
}
