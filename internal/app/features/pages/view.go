// internal/app/features/pages/view.go
package pages

import (
	"net/http"

	uierrors "github.com/dalemusser/coophub/internal/app/features/errors"
	"github.com/dalemusser/coophub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type pageViewVM struct {
	viewdata.BaseVM
	Page Page
}

// ServePage returns a handler for the placeholder with the given slug.
func (h *Handler) ServePage(slug string) http.HandlerFunc {
	p, ok := h.pages[slug]
	return func(w http.ResponseWriter, r *http.Request) {
		if !ok {
			h.Log.Warn("no placeholder page", zap.String("slug", slug))
			uierrors.RenderPage(w, r, http.StatusNotFound, "Page not found",
				"The page you are looking for does not exist.", "/dashboard")
			return
		}
		templates.Render(w, r, "page_view", pageViewVM{
			BaseVM: viewdata.NewBaseVM(w, r, p.Title, "/dashboard"),
			Page:   p,
		})
	}
}
