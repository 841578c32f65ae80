// internal/app/features/login/handler.go
package login

import (
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/coophub/internal/app/features/errors"
	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/dalemusser/coophub/internal/app/system/inputval"
	"github.com/dalemusser/coophub/internal/app/system/ratelimit"
	"github.com/dalemusser/coophub/internal/app/system/timeouts"
	"github.com/dalemusser/coophub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

type Handler struct {
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Limiter *ratelimit.AuthLimiter
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error     string
	Email     string
	ReturnURL string
}

func NewHandler(errLog *uierrors.ErrorLogger, limiter *ratelimit.AuthLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Log:     logger,
		ErrLog:  errLog,
		Limiter: limiter,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(w, r, "Login", "/"),
		ReturnURL: query.Get(r, "return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	ret := r.FormValue("return")

	var v inputval.Result
	v.Email(email)
	v.Required("Password", password)
	if !v.OK() {
		h.renderFormWithError(w, r, v.Message(), email, ret)
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.Log.Warn("login rate limited", zap.String("email", email))
			h.renderFormWithError(w, r, reason, email, ret)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "login")
	defer cancel()

	// The manager queues the success or failure toast itself.
	if err := auth.Manager(r).Login(ctx, email, password); err != nil {
		h.renderFormWithError(w, r, "", email, ret)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}

	http.Redirect(w, r, urlutil.SafeReturn(ret, "", "/dashboard"), http.StatusSeeOther)
}

// renderFormWithError re-renders the form, echoing what the user typed.
// An empty msg leaves the explanation to the toast.
func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email, ret string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(w, r, "Login", "/"),
		Error:     msg,
		Email:     email,
		ReturnURL: ret,
	})
}
