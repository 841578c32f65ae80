// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"

	"github.com/dalemusser/coophub/internal/app/system/apiclient"
	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/dalemusser/coophub/internal/app/system/timeouts"
	"github.com/dalemusser/coophub/internal/app/system/viewdata"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

type quickAction struct {
	Label   string
	Href    string
	Primary bool
}

type dashboardData struct {
	viewdata.BaseVM
	FullName     string
	Tagline      string
	Cooperatives CooperativeStats
	Members      MemberStats
	Meetings     MeetingStats
	Actions      []quickAction
}

// roleCopy returns the welcome tagline and quick actions for a role.
func roleCopy(role models.Role) (string, []quickAction) {
	switch role {
	case models.RoleDistrictOfficial:
		return "Manage cooperatives in your district", []quickAction{
			{Label: "Review Pending Cooperatives", Href: "/cooperatives?status=pending", Primary: true},
			{Label: "Generate Reports", Href: "/financial"},
		}
	case models.RoleCooperativeLeader:
		return "Manage your cooperative members and activities", []quickAction{
			{Label: "Manage Members", Href: "/members", Primary: true},
			{Label: "Schedule Meeting", Href: "/meetings"},
		}
	default:
		return "Stay updated with your cooperative activities", []quickAction{
			{Label: "View Savings", Href: "/financial", Primary: true},
			{Label: "Upcoming Meetings", Href: "/meetings"},
		}
	}
}

// ServeDashboard handles GET /dashboard. A failed fetch is logged and the
// page renders with zero counts.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	data := dashboardData{FullName: u.FullName}
	data.Tagline, data.Actions = roleCopy(u.Role)
	data.Cooperatives = h.loadStats(r)
	data.BaseVM = viewdata.NewBaseVM(w, r, "Dashboard", "/dashboard")

	templates.Render(w, r, "dashboard", data)
}

func (h *Handler) loadStats(r *http.Request) CooperativeStats {
	m := auth.Manager(r)
	if m == nil {
		return CooperativeStats{}
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "dashboard stats")
	defer cancel()

	coops, err := m.API().ListCooperatives(ctx, apiclient.ListFilter{})
	if err != nil {
		h.Log.Warn("dashboard: list cooperatives failed",
			zap.Int("status", apiclient.Status(err)), zap.Error(err))
		return CooperativeStats{}
	}
	return Count(coops)
}
