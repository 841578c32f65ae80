// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/coophub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the basic view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Heading string
	Message string
}

// Handler is the errors feature handler.
// No API needed; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound renders the page for paths no screen claims.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	RenderPage(w, r, http.StatusNotFound, "Page not found",
		"The page you are looking for does not exist.", "/")
}

// Forbidden renders a friendly "access denied" page.
// GET /forbidden
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	RenderPage(w, r, http.StatusForbidden, "Access denied",
		"You don't have permission to view this page.", "/dashboard")
}

// RenderPage writes status and renders the shared error page.
func RenderPage(w http.ResponseWriter, r *http.Request, status int, heading, msg, backDefault string) {
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(w, r, heading, backDefault),
		Heading: heading,
		Message: msg,
	}
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}
