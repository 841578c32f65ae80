// internal/app/features/register/handler.go
package register

import (
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/coophub/internal/app/features/errors"
	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/dalemusser/coophub/internal/app/system/inputval"
	"github.com/dalemusser/coophub/internal/app/system/ratelimit"
	"github.com/dalemusser/coophub/internal/app/system/timeouts"
	"github.com/dalemusser/coophub/internal/app/system/viewdata"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// minPasswordLen matches the API's own lower bound.
const minPasswordLen = 6

type Handler struct {
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Limiter *ratelimit.AuthLimiter
}

func NewHandler(errLog *uierrors.ErrorLogger, limiter *ratelimit.AuthLimiter, logger *zap.Logger) *Handler {
	return &Handler{Log: logger, ErrLog: errLog, Limiter: limiter}
}

type roleOption struct {
	Value    string
	Label    string
	Selected bool
}

type registerFormData struct {
	viewdata.BaseVM
	Error    string
	Email    string
	FullName string
	District string
	Phone    string
	Roles    []roleOption
}

func roleOptions(selected models.Role) []roleOption {
	if selected == "" {
		selected = models.RoleMember
	}
	out := make([]roleOption, 0, len(models.Roles))
	for _, r := range models.Roles {
		out = append(out, roleOption{Value: string(r), Label: r.Label(), Selected: r == selected})
	}
	return out
}

// ServeRegister handles GET /register.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "register", registerFormData{
		BaseVM: viewdata.NewBaseVM(w, r, "Register", "/login"),
		Roles:  roleOptions(""),
	})
}

// form is the parsed and cleaned registration form.
type form struct {
	Email, Password, Confirm, FullName, District, Phone string
	Role                                                models.Role
}

func parseForm(r *http.Request) (form, inputval.Result) {
	f := form{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		Confirm:  r.FormValue("confirm_password"),
		FullName: inputval.Clean(r.FormValue("full_name")),
		District: inputval.Clean(r.FormValue("district")),
		Phone:    inputval.Clean(r.FormValue("phone")),
	}

	var v inputval.Result
	v.Required("Full name", f.FullName)
	v.Email(f.Email)
	if v.Required("Password", f.Password) {
		v.MinLen("Password", f.Password, minPasswordLen)
		if f.Password != f.Confirm {
			v.Add("Passwords do not match.")
		}
	}
	role, ok := models.ParseRole(r.FormValue("role"))
	if !ok {
		v.Add("Choose a valid role.")
	}
	f.Role = role
	if role == models.RoleDistrictOfficial && f.District == "" {
		v.Add("District is required for district officials.")
	}
	return f, v
}

func (f form) registration() models.Registration {
	reg := models.Registration{
		Email:    f.Email,
		Password: f.Password,
		FullName: f.FullName,
		Role:     f.Role,
	}
	if f.District != "" {
		d := f.District
		reg.District = &d
	}
	if f.Phone != "" {
		p := f.Phone
		reg.Phone = &p
	}
	return reg
}

// HandleRegisterPost handles POST /register.
func (h *Handler) HandleRegisterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/register")
		return
	}

	f, v := parseForm(r)
	if !v.OK() {
		h.renderForm(w, r, f, v.Message())
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, f.Email); !ok {
			h.renderForm(w, r, f, reason)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "register")
	defer cancel()

	if err := auth.Manager(r).Register(ctx, f.registration()); err != nil {
		h.renderForm(w, r, f, "")
		return
	}
	h.Log.Info("account registered", zap.String("email", f.Email), zap.String("role", string(f.Role)))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, f form, msg string) {
	templates.Render(w, r, "register", registerFormData{
		BaseVM:   viewdata.NewBaseVM(w, r, "Register", "/login"),
		Error:    msg,
		Email:    f.Email,
		FullName: f.FullName,
		District: f.District,
		Phone:    f.Phone,
		Roles:    roleOptions(f.Role),
	})
}
