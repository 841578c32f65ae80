// internal/app/features/cooperatives/handler.go
package cooperatives

import (
	"net/http"
	"strconv"
	"strings"

	uierrors "github.com/dalemusser/coophub/internal/app/features/errors"
	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/dalemusser/coophub/internal/app/system/viewdata"
	"github.com/dalemusser/coophub/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		ErrLog: errLog,
	}
}

// Toast texts.
const (
	msgFetchFailed   = "Failed to fetch cooperatives"
	msgCreated       = "Cooperative created successfully!"
	msgCreateFailed  = "Failed to create cooperative"
	msgApproved      = "Cooperative approved successfully!"
	msgApproveFailed = "Failed to approve cooperative"
)

const (
	gridTarget        = "coops-grid-wrap"
	dateLayout        = "Jan 2, 2006"
	emptyAll          = "Start by creating your first cooperative"
	emptyFiltered     = "Try adjusting your search filters"
	defaultListReturn = "/cooperatives"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type statusOption struct {
	Value    string
	Label    string
	Selected bool
}

// coopCard is one cooperative with its display strings precomputed.
type coopCard struct {
	ID          string
	Name        string
	RegNumber   string
	Status      string
	StatusLabel string
	StatusClass string
	Description string
	Location    string // "district, sector"
	Address     string // "cell, village"
	Members     string
	Created     string
	CanApprove  bool
}

type listData struct {
	viewdata.BaseVM
	Q          string
	Status     string
	Options    []statusOption
	Cards      []coopCard
	EmptyHint  string
	CanCreate  bool
	ReturnPath string
}

type formData struct {
	viewdata.BaseVM
	Error       string
	Name        string
	Description string
	District    string
	Sector      string
	Cell        string
	Village     string
}

type detailData struct {
	viewdata.BaseVM
	Card coopCard
}

func statusOptions(selected models.CooperativeStatus) []statusOption {
	opts := []statusOption{{Value: "", Label: "All Status", Selected: selected == ""}}
	for _, st := range models.Statuses {
		opts = append(opts, statusOption{
			Value:    string(st),
			Label:    strings.ToUpper(string(st[:1])) + string(st[1:]),
			Selected: st == selected,
		})
	}
	return opts
}

func statusClass(st models.CooperativeStatus) string {
	switch st {
	case models.StatusApproved:
		return "bg-green-100 text-green-800"
	case models.StatusRejected:
		return "bg-red-100 text-red-800"
	default:
		return "bg-yellow-100 text-yellow-800"
	}
}

func card(c models.Cooperative, canApprove bool) coopCard {
	cc := coopCard{
		ID:          c.ID,
		Name:        c.Name,
		RegNumber:   c.RegNumber(),
		Status:      string(c.Status),
		StatusLabel: strings.ToUpper(string(c.Status)),
		StatusClass: statusClass(c.Status),
		Description: c.Description,
		Location:    c.District + ", " + c.Sector,
		Address:     c.Cell + ", " + c.Village,
		Members:     strconv.Itoa(c.MembersCount) + " members",
		CanApprove:  canApprove && c.Status == models.StatusPending,
	}
	if !c.CreatedAt.IsZero() {
		cc.Created = c.CreatedAt.Format(dateLayout)
	}
	return cc
}

// parseStatus maps the status query value to a filter; anything unknown
// means all statuses.
func parseStatus(s string) models.CooperativeStatus {
	st, _ := models.ParseStatus(strings.TrimSpace(s))
	return st
}

// isGridRequest reports whether an HTMX request targets the grid wrapper.
func isGridRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") != "" && r.Header.Get("HX-Target") == gridTarget
}

// board builds a board over the request's session API.
func (h *Handler) board(r *http.Request) (*Board, bool) {
	m := auth.Manager(r)
	if m == nil {
		return nil, false
	}
	return NewBoard(m.API()), true
}
