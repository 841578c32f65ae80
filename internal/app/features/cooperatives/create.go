// internal/app/features/cooperatives/create.go
package cooperatives

import (
	"net/http"

	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/dalemusser/coophub/internal/app/system/inputval"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/app/system/timeouts"
	"github.com/dalemusser/coophub/internal/app/system/viewdata"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| GET /cooperatives/new                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	h.renderForm(w, r, formData{District: u.DistrictName()})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /cooperatives                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCreate submits a new cooperative led by the current user. Every
// field is required.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/cooperatives/new")
		return
	}

	in := models.NewCooperative{
		Name:        inputval.Clean(r.FormValue("name")),
		Description: inputval.CleanMultiline(r.FormValue("description")),
		District:    inputval.Clean(r.FormValue("district")),
		Sector:      inputval.Clean(r.FormValue("sector")),
		Cell:        inputval.Clean(r.FormValue("cell")),
		Village:     inputval.Clean(r.FormValue("village")),
		LeaderID:    u.ID,
	}
	form := formData{
		Name:        in.Name,
		Description: in.Description,
		District:    in.District,
		Sector:      in.Sector,
		Cell:        in.Cell,
		Village:     in.Village,
	}

	var v inputval.Result
	v.Required("Name", in.Name)
	v.Required("Description", in.Description)
	v.Required("District", in.District)
	v.Required("Sector", in.Sector)
	v.Required("Cell", in.Cell)
	v.Required("Village", in.Village)
	if !v.OK() {
		form.Error = v.Message()
		h.renderForm(w, r, form)
		return
	}

	b, _ := h.board(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create cooperative")
	defer cancel()

	// HTMX submits get the reconciled grid back, so load first.
	htmx := isGridRequest(r)
	if htmx {
		if err := b.Load(ctx); err != nil {
			h.Log.Warn("list cooperatives failed", zap.Error(err))
		}
	}

	c, err := b.Create(ctx, in)
	if err != nil {
		h.Log.Warn("create cooperative failed", zap.String("name", in.Name), zap.Error(err))
		auth.Notify(r, notify.Error, apiclient.UserMessage(err, msgCreateFailed))
		h.renderForm(w, r, form)
		return
	}
	h.Log.Info("cooperative created", zap.String("id", c.ID), zap.String("leader_id", u.ID))
	auth.Notify(r, notify.Success, msgCreated)

	if htmx {
		h.renderList(w, r, b, "", "")
		return
	}
	http.Redirect(w, r, defaultListReturn, http.StatusSeeOther)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, data formData) {
	data.BaseVM = viewdata.NewBaseVM(w, r, "Register Cooperative", "/cooperatives")
	templates.Render(w, r, "cooperatives_new", data)
}
