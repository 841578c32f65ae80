// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"
	"sync"

	"github.com/dalemusser/coophub/internal/app/system/auth"
	"github.com/dalemusser/coophub/internal/app/system/guard"
	"github.com/dalemusser/coophub/internal/app/system/notify"
	"github.com/dalemusser/coophub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(w, r, "Page Title", "/dashboard"),
//	}
type BaseVM struct {
	// Site settings (from configuration)
	SiteName string
	Footer   string

	// User context (from the session middleware)
	IsLoggedIn bool
	Role       string
	RoleLabel  string
	UserName   string
	UserEmail  string
	District   string

	// Navigation visible to this user, from the route policy.
	Nav []guard.NavItem

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection
	CSRFToken string

	// Toasts queued by the previous request (or this one).
	Toasts []notify.Notification
}

// Config is what bootstrap hands to Init.
type Config struct {
	Site   models.SiteSettings
	Policy *guard.Policy
	Flash  notify.SessionSource // nil disables toasts
}

var cfg Config

// Init sets the site settings, route policy and toast source.
// Call this once at startup from bootstrap.
func Init(c Config) {
	cfg = c
}

var defaultPolicy = sync.OnceValue(guard.Default)

func policy() *guard.Policy {
	if cfg.Policy == nil {
		return defaultPolicy()
	}
	return cfg.Policy
}

// NewBaseVM creates a fully populated BaseVM for a page. Reading the toasts
// consumes them, so it must run before the response body is written.
func NewBaseVM(w http.ResponseWriter, r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    cfg.Site.Name(),
		Footer:      cfg.Site.Footer,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}

	if u, ok := auth.CurrentUser(r); ok {
		vm.IsLoggedIn = true
		vm.Role = string(u.Role)
		vm.RoleLabel = u.Role.Label()
		vm.UserName = u.FullName
		vm.UserEmail = u.Email
		vm.District = u.DistrictName()
		vm.Nav = policy().Nav(u.Role)
	}

	if cfg.Flash != nil && w != nil {
		vm.Toasts = notify.Pop(cfg.Flash, w, r)
	}
	return vm
}

// Can reports whether the current user may perform action on screen.
// Templates use it (via view models) to hide buttons.
func Can(r *http.Request, screen, action string) bool {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return false
	}
	return policy().Allows(u.Role, screen, action)
}
